package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/utils"
)

func defence(user string, at time.Time) *models.Interview {
	return &models.Interview{
		Kind:      models.KindDefence,
		UserID:    user,
		Finalized: true,
		Status:    models.InterviewStatusFinalized,
		Questions: []string{"Q1"},
		CreatedAt: at,
		Defence:   &models.DefenceDetails{ProjectTitle: "P"},
	}
}

func TestInterviewListing(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Interviews()
	base := time.Now()

	require.NoError(t, repo.Create(ctx, defence("u1", base)))
	require.NoError(t, repo.Create(ctx, defence("u1", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, defence("u2", base.Add(2*time.Minute))))

	mine, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].CreatedAt.After(mine[1].CreatedAt))

	latest, err := repo.ListLatest(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "u2", latest[0].UserID)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Interviews()
	in := defence("u1", time.Now())
	require.NoError(t, repo.Create(ctx, in))

	got, err := repo.GetByID(ctx, in.ID)
	require.NoError(t, err)
	got.Questions[0] = "mutated"

	again, err := repo.GetByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1", again.Questions[0])
}

func TestDeleteCascade(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	in := defence("u1", time.Now())
	require.NoError(t, s.Interviews().Create(ctx, in))
	other := defence("u1", time.Now())
	require.NoError(t, s.Interviews().Create(ctx, other))

	for _, iid := range []string{in.ID, in.ID, other.ID} {
		require.NoError(t, s.Feedback().Save(ctx, &models.Feedback{InterviewID: iid, UserID: "u1"}))
	}

	n, err := s.Interviews().DeleteCascade(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.Feedback().FindByInterview(ctx, in.ID, "u1")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = s.Feedback().FindByInterview(ctx, other.ID, "u1")
	assert.NoError(t, err)

	_, err = s.Interviews().DeleteCascade(ctx, in.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
