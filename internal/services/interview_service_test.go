package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoodefence/internal/cache"
	"github.com/yoockh/yoodefence/internal/logger"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/repositories/memory"
	"github.com/yoockh/yoodefence/internal/utils"
)

type interviewFixture struct {
	store *memory.Store
	blobs *fakeBlobs
	llm   *fakeLLM
	svc   InterviewService
}

func newInterviewFixture() *interviewFixture {
	f := &interviewFixture{
		store: memory.NewStore(),
		blobs: &fakeBlobs{},
		llm:   &fakeLLM{text: `["Explain your architecture.", "How did you validate results?"]`},
	}
	log := logger.Discard()
	f.svc = NewInterviewService(
		f.store.Interviews(),
		NewQuestionService(f.llm, log),
		cache.NewMemory(),
		f.blobs,
		nil,
		log,
	)
	return f
}

func defenceRequest(user string) GenerateRequest {
	return GenerateRequest{
		Kind:   models.KindDefence,
		UserID: user,
		Defence: &DefenceParams{
			ProjectTitle:     "Campus Navigator",
			AcademicLevel:    "masters",
			TechnologiesUsed: " Flutter , Firebase,",
			FocusRatio:       "balanced",
			ProjectFile:      &models.ProjectFile{Name: "doc.pdf", Type: "application/pdf", URL: "https://x/doc.pdf", Path: "project-files/u1/doc.pdf"},
		},
	}
}

func TestGenerateDefence(t *testing.T) {
	f := newInterviewFixture()
	iv, err := f.svc.Generate(context.Background(), defenceRequest("u1"))
	require.NoError(t, err)

	assert.NotEmpty(t, iv.ID)
	assert.Equal(t, models.KindDefence, iv.Kind)
	assert.Equal(t, 5, iv.QuestionCount)
	assert.True(t, iv.Finalized)
	assert.Equal(t, models.InterviewStatusFinalized, iv.Status)
	assert.Equal(t, []string{"Explain your architecture.", "How did you validate results?"}, iv.Questions)
	assert.Equal(t, []string{"Flutter", "Firebase"}, iv.Defence.TechnologiesUsed)
	assert.Nil(t, iv.Job)

	got, err := f.svc.Get(context.Background(), iv.ID)
	require.NoError(t, err)
	assert.Equal(t, iv.Questions, got.Questions)
}

func TestGenerateJob(t *testing.T) {
	f := newInterviewFixture()
	iv, err := f.svc.Generate(context.Background(), GenerateRequest{
		Kind:   models.KindJobInterview,
		UserID: "u1",
		Job:    &JobParams{Role: "Frontend Developer", TechStack: "React, TypeScript", Amount: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, iv.QuestionCount)
	assert.Equal(t, []string{"React", "TypeScript"}, iv.Job.TechStack)
	assert.Nil(t, iv.Defence)
}

func TestGenerateValidation(t *testing.T) {
	f := newInterviewFixture()
	ctx := context.Background()

	cases := map[string]GenerateRequest{
		"missing title": {Kind: models.KindDefence, UserID: "u1", Defence: &DefenceParams{TechnologiesUsed: "Go"}},
		"missing techs": {Kind: models.KindDefence, UserID: "u1", Defence: &DefenceParams{ProjectTitle: "X"}},
		"missing user":  {Kind: models.KindDefence, Defence: &DefenceParams{ProjectTitle: "X", TechnologiesUsed: "Go"}},
		"too many":      {Kind: models.KindDefence, UserID: "u1", Defence: &DefenceParams{ProjectTitle: "X", TechnologiesUsed: "Go", QuestionCount: 11}},
		"job no role":   {Kind: models.KindJobInterview, UserID: "u1", Job: &JobParams{TechStack: "Go"}},
		"unknown kind":  {Kind: "quiz", UserID: "u1"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Generate(ctx, req)
			assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.llm.calls)
}

func TestDeleteCascadesFeedback(t *testing.T) {
	f := newInterviewFixture()
	ctx := context.Background()
	iv, err := f.svc.Generate(ctx, defenceRequest("u1"))
	require.NoError(t, err)

	require.NoError(t, f.store.Feedback().Save(ctx, &models.Feedback{InterviewID: iv.ID, UserID: "u1"}))
	require.NoError(t, f.store.Feedback().Save(ctx, &models.Feedback{InterviewID: iv.ID, UserID: "u2"}))

	// warm the cache so the delete has to invalidate it
	_, err = f.svc.Get(ctx, iv.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, iv.ID, "u1"))

	_, err = f.store.Feedback().FindByInterview(ctx, iv.ID, "u1")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = f.store.Feedback().FindByInterview(ctx, iv.ID, "u2")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.svc.Get(ctx, iv.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.Equal(t, []string{"project-files/u1/doc.pdf"}, f.blobs.deleted)
}

func TestDeleteByOtherUserIsRejected(t *testing.T) {
	f := newInterviewFixture()
	ctx := context.Background()
	iv, err := f.svc.Generate(ctx, defenceRequest("u1"))
	require.NoError(t, err)
	require.NoError(t, f.store.Feedback().Save(ctx, &models.Feedback{InterviewID: iv.ID, UserID: "u1"}))

	err = f.svc.Delete(ctx, iv.ID, "intruder")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
	assert.Equal(t, "unauthorized", utils.PublicMessage(err))

	_, err = f.store.Interviews().GetByID(ctx, iv.ID)
	assert.NoError(t, err)
	_, err = f.store.Feedback().FindByInterview(ctx, iv.ID, "u1")
	assert.NoError(t, err)
	assert.Empty(t, f.blobs.deleted)
}

func TestListings(t *testing.T) {
	f := newInterviewFixture()
	ctx := context.Background()
	for _, u := range []string{"u1", "u1", "u2"} {
		_, err := f.svc.Generate(ctx, defenceRequest(u))
		require.NoError(t, err)
	}

	mine, err := f.svc.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	latest, err := f.svc.ListLatest(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "u2", latest[0].UserID)
}
