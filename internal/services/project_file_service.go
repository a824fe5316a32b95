package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/yoodefence/internal/models"
	pgrepo "github.com/yoockh/yoodefence/internal/repositories/postgres"
	"github.com/yoockh/yoodefence/internal/storage"
	"github.com/yoockh/yoodefence/internal/utils"
)

const MaxProjectFileSize = 20 << 20

var allowedProjectTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/zip": true,
	"text/plain":      true,
	"text/markdown":   true,
}

type ProjectFileService interface {
	Upload(ctx context.Context, userID, fileName, mimeType string, size int64, r io.Reader) (*models.ProjectFileRecord, error)
	ListByUser(ctx context.Context, userID string) ([]models.ProjectFileRecord, error)
}

type projectFileService struct {
	repo  pgrepo.ProjectFileRepository
	blobs storage.BlobStore
}

func NewProjectFileService(repo pgrepo.ProjectFileRepository, blobs storage.BlobStore) ProjectFileService {
	return &projectFileService{repo: repo, blobs: blobs}
}

func (s *projectFileService) Upload(ctx context.Context, userID, fileName, mimeType string, size int64, r io.Reader) (*models.ProjectFileRecord, error) {
	const op = "ProjectFileService.Upload"

	if userID == "" || fileName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and file name are required", nil)
	}
	if size <= 0 || size > MaxProjectFileSize {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file must be between 1 byte and 20MB", nil)
	}
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !allowedProjectTypes[mimeType] {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unsupported file type %q", mimeType), nil)
	}
	if s.blobs == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "file storage is not configured", nil)
	}

	id := uuid.NewString()
	objectName := path.Join("project-files", userID, id+"-"+path.Base(fileName))

	url, err := s.blobs.Upload(ctx, objectName, mimeType, r)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload file", err)
	}

	row := &models.ProjectFileRecord{
		ID:         id,
		UserID:     userID,
		FileName:   fileName,
		ObjectPath: objectName,
		URL:        url,
		MimeType:   mimeType,
		FileSize:   size,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		_ = s.blobs.Delete(ctx, objectName)
		return nil, utils.E(utils.CodeInternal, op, "failed to persist project file metadata", err)
	}
	return row, nil
}

func (s *projectFileService) ListByUser(ctx context.Context, userID string) ([]models.ProjectFileRecord, error) {
	const op = "ProjectFileService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.repo.ListByUser(ctx, userID, 50)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list project files", err)
	}
	return rows, nil
}
