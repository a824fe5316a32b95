package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/utils"
	"gorm.io/gorm"
)

type CallLogRepository interface {
	Insert(ctx context.Context, log *models.CallLog) error
	Update(ctx context.Context, log *models.CallLog) error
	GetByID(ctx context.Context, id string) (*models.CallLog, error)
	ListByInterview(ctx context.Context, interviewID string, limit int) ([]models.CallLog, error)
	ListRecent(ctx context.Context, limit int) ([]models.CallLog, error)
	DeleteByInterview(ctx context.Context, interviewID string) (int64, error)
}

type callLogRepo struct {
	db *gorm.DB
}

func NewCallLogRepo(db *gorm.DB) CallLogRepository {
	return &callLogRepo{db: db}
}

func (r *callLogRepo) Insert(ctx context.Context, log *models.CallLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *callLogRepo) Update(ctx context.Context, log *models.CallLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

func (r *callLogRepo) GetByID(ctx context.Context, id string) (*models.CallLog, error) {
	var row models.CallLog
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *callLogRepo) ListByInterview(ctx context.Context, interviewID string, limit int) ([]models.CallLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.CallLog
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *callLogRepo) ListRecent(ctx context.Context, limit int) ([]models.CallLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.CallLog
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *callLogRepo) DeleteByInterview(ctx context.Context, interviewID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("interview_id = ?", interviewID).Delete(&models.CallLog{})
	return res.RowsAffected, res.Error
}
