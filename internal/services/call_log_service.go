package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/yoodefence/internal/models"
	pgrepo "github.com/yoockh/yoodefence/internal/repositories/postgres"
	"github.com/yoockh/yoodefence/internal/utils"
	"gorm.io/datatypes"
)

type CallLogService interface {
	Open(ctx context.Context, interviewID, userID string, attempt int, questions []string, metadata map[string]any) (*models.CallLog, error)
	Save(ctx context.Context, log *models.CallLog) error
	// Close stamps the end time and duration and stores the final state.
	Close(ctx context.Context, log *models.CallLog, status, feedbackID, lastError string) error
	ListRecent(ctx context.Context, limit int) ([]models.CallLog, error)
	ListByInterview(ctx context.Context, interviewID string) ([]models.CallLog, error)
	DeleteByInterview(ctx context.Context, interviewID string) (int64, error)
}

type callLogService struct {
	repo pgrepo.CallLogRepository
}

func NewCallLogService(repo pgrepo.CallLogRepository) CallLogService {
	return &callLogService{repo: repo}
}

func (s *callLogService) Open(ctx context.Context, interviewID, userID string, attempt int, questions []string, metadata map[string]any) (*models.CallLog, error) {
	const op = "CallLogService.Open"

	if interviewID == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id and user_id are required", nil)
	}

	var md datatypes.JSON
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "invalid metadata", err)
		}
		md = datatypes.JSON(b)
	}

	row := &models.CallLog{
		ID:          uuid.NewString(),
		InterviewID: interviewID,
		UserID:      userID,
		Attempt:     attempt,
		Questions:   models.TextArray(questions),
		StartedAt:   time.Now().UTC(),
		Metadata:    md,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert call log", err)
	}
	return row, nil
}

func (s *callLogService) Save(ctx context.Context, log *models.CallLog) error {
	const op = "CallLogService.Save"
	if err := s.repo.Update(ctx, log); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update call log", err)
	}
	return nil
}

func (s *callLogService) Close(ctx context.Context, log *models.CallLog, status, feedbackID, lastError string) error {
	now := time.Now().UTC()
	log.Status = status
	log.EndedAt = &now
	log.DurationSeconds = int64(now.Sub(log.StartedAt).Seconds())
	if log.DurationSeconds < 0 {
		log.DurationSeconds = 0
	}
	if feedbackID != "" {
		log.FeedbackID = feedbackID
	}
	if lastError != "" {
		log.LastError = lastError
	}
	return s.Save(ctx, log)
}

func (s *callLogService) ListRecent(ctx context.Context, limit int) ([]models.CallLog, error) {
	const op = "CallLogService.ListRecent"
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list call logs", err)
	}
	return rows, nil
}

func (s *callLogService) ListByInterview(ctx context.Context, interviewID string) ([]models.CallLog, error) {
	const op = "CallLogService.ListByInterview"
	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	rows, err := s.repo.ListByInterview(ctx, interviewID, 50)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list call logs", err)
	}
	return rows, nil
}

func (s *callLogService) DeleteByInterview(ctx context.Context, interviewID string) (int64, error) {
	const op = "CallLogService.DeleteByInterview"
	n, err := s.repo.DeleteByInterview(ctx, interviewID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to delete call logs", err)
	}
	return n, nil
}
