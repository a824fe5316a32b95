package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/utils"
	"gorm.io/gorm"
)

type ProjectFileRepository interface {
	Insert(ctx context.Context, f *models.ProjectFileRecord) error
	GetByID(ctx context.Context, id string) (*models.ProjectFileRecord, error)
	GetByObjectPath(ctx context.Context, path string) (*models.ProjectFileRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ProjectFileRecord, error)
	Delete(ctx context.Context, id string) error
}

type projectFileRepo struct {
	db *gorm.DB
}

func NewProjectFileRepo(db *gorm.DB) ProjectFileRepository {
	return &projectFileRepo{db: db}
}

func (r *projectFileRepo) Insert(ctx context.Context, f *models.ProjectFileRecord) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *projectFileRepo) GetByID(ctx context.Context, id string) (*models.ProjectFileRecord, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *projectFileRepo) GetByObjectPath(ctx context.Context, path string) (*models.ProjectFileRecord, error) {
	return r.take(ctx, "object_path = ?", path)
}

func (r *projectFileRepo) take(ctx context.Context, query string, arg any) (*models.ProjectFileRecord, error) {
	var row models.ProjectFileRecord
	err := r.db.WithContext(ctx).Where(query, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *projectFileRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.ProjectFileRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ProjectFileRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *projectFileRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProjectFileRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
