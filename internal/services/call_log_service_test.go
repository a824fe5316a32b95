package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoodefence/internal/models"
	pgrepo "github.com/yoockh/yoodefence/internal/repositories/postgres"
	"github.com/yoockh/yoodefence/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newCallLogService(t *testing.T) CallLogService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CallLog{}))
	return NewCallLogService(pgrepo.NewCallLogRepo(db))
}

func TestCallLogLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newCallLogService(t)

	row, err := svc.Open(ctx, "iv1", "u1", 1, []string{"Q1", "Q2"}, map[string]any{"kind": "defence"})
	require.NoError(t, err)
	assert.NotEmpty(t, row.ID)

	row.Status = "ACTIVE"
	require.NoError(t, svc.Save(ctx, row))

	row.TranscriptCount = 4
	require.NoError(t, svc.Close(ctx, row, "FINISHED", "fb-1", ""))
	require.NotNil(t, row.EndedAt)

	rows, err := svc.ListByInterview(ctx, "iv1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FINISHED", rows[0].Status)
	assert.Equal(t, "fb-1", rows[0].FeedbackID)
	assert.Equal(t, 4, rows[0].TranscriptCount)
	assert.Equal(t, models.TextArray{"Q1", "Q2"}, rows[0].Questions)
	assert.JSONEq(t, `{"kind":"defence"}`, string(rows[0].Metadata))

	recent, err := svc.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	n, err := svc.DeleteByInterview(ctx, "iv1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCallLogOpenValidates(t *testing.T) {
	svc := newCallLogService(t)
	_, err := svc.Open(context.Background(), "", "u1", 1, nil, nil)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
