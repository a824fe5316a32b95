package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoodefence/internal/cache"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/repositories"
	"github.com/yoockh/yoodefence/internal/storage"
	"github.com/yoockh/yoodefence/internal/utils"
)

type GenerateRequest struct {
	Kind    models.InterviewKind
	UserID  string
	Defence *DefenceParams
	Job     *JobParams
}

type InterviewService interface {
	Generate(ctx context.Context, req GenerateRequest) (*models.Interview, error)
	Get(ctx context.Context, id string) (*models.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]models.Interview, error)
	ListLatest(ctx context.Context, userID string, limit int) ([]models.Interview, error)
	Delete(ctx context.Context, id, userID string) error
}

// CallLogPurger drops call history together with an interview.
type CallLogPurger interface {
	DeleteByInterview(ctx context.Context, interviewID string) (int64, error)
}

type interviewService struct {
	repo      repositories.InterviewRepository
	questions QuestionService
	cache     cache.Cache
	blobs     storage.BlobStore
	callLogs  CallLogPurger
	log       logrus.FieldLogger
}

// NewInterviewService wires the session store. blobs and callLogs may be nil.
func NewInterviewService(
	repo repositories.InterviewRepository,
	questions QuestionService,
	c cache.Cache,
	blobs storage.BlobStore,
	callLogs CallLogPurger,
	log logrus.FieldLogger,
) InterviewService {
	if c == nil {
		c = cache.NewMemory()
	}
	return &interviewService{repo: repo, questions: questions, cache: c, blobs: blobs, callLogs: callLogs, log: log}
}

// normalizeCount applies the default and the upper bound.
func normalizeCount(op string, n int) (int, error) {
	if n <= 0 {
		return DefaultQuestionCount, nil
	}
	if n > MaxQuestionCount {
		return 0, utils.E(utils.CodeInvalidArgument, op, "questionCount must be at most 10", nil)
	}
	return n, nil
}

func (s *interviewService) Generate(ctx context.Context, req GenerateRequest) (*models.Interview, error) {
	const op = "InterviewService.Generate"

	if strings.TrimSpace(req.UserID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "userId is required", nil)
	}

	iv := &models.Interview{
		Kind:      req.Kind,
		UserID:    req.UserID,
		CreatedAt: time.Now().UTC(),
	}

	switch req.Kind {
	case models.KindDefence:
		p := req.Defence
		if p == nil || strings.TrimSpace(p.ProjectTitle) == "" || strings.TrimSpace(p.TechnologiesUsed) == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "Missing required fields", nil)
		}
		n, err := normalizeCount(op, p.QuestionCount)
		if err != nil {
			return nil, err
		}
		p.QuestionCount = n
		iv.QuestionCount = n
		iv.Questions = s.questions.DefenceQuestions(ctx, *p)
		iv.Defence = &models.DefenceDetails{
			ProjectTitle:     strings.TrimSpace(p.ProjectTitle),
			AcademicLevel:    p.AcademicLevel,
			TechnologiesUsed: models.SplitList(p.TechnologiesUsed),
			FocusRatio:       p.FocusRatio,
			ProjectFile:      p.ProjectFile,
		}
	case models.KindJobInterview:
		p := req.Job
		if p == nil || strings.TrimSpace(p.Role) == "" || strings.TrimSpace(p.TechStack) == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "Missing required fields", nil)
		}
		n, err := normalizeCount(op, p.Amount)
		if err != nil {
			return nil, err
		}
		p.Amount = n
		iv.QuestionCount = n
		iv.Questions = s.questions.JobQuestions(ctx, *p)
		iv.Job = &models.JobDetails{
			Role:      strings.TrimSpace(p.Role),
			Level:     p.Level,
			TechStack: models.SplitList(p.TechStack),
			Type:      p.Type,
		}
	default:
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown interview type", nil)
	}

	// questions are embedded at creation, so the record is complete
	iv.Status = models.InterviewStatusFinalized
	iv.Finalized = true

	if err := iv.Validate(); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "invalid interview", err)
	}
	if err := s.repo.Create(ctx, iv); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}

	s.log.WithFields(logrus.Fields{
		"interview_id": iv.ID,
		"user_id":      iv.UserID,
		"kind":         iv.Kind,
		"questions":    len(iv.Questions),
	}).Info("interview created")
	return iv, nil
}

func (s *interviewService) Get(ctx context.Context, id string) (*models.Interview, error) {
	const op = "InterviewService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}

	var cached models.Interview
	if hit, err := s.cache.GetJSON(ctx, cache.InterviewKey(id), &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		s.log.WithError(err).Warn("interview cache read failed")
	}

	iv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}

	if err := s.cache.SetJSON(ctx, cache.InterviewKey(id), iv, cache.InterviewTTL); err != nil {
		s.log.WithError(err).Warn("interview cache write failed")
	}
	return iv, nil
}

func (s *interviewService) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	const op = "InterviewService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return out, nil
}

func (s *interviewService) ListLatest(ctx context.Context, userID string, limit int) ([]models.Interview, error) {
	const op = "InterviewService.ListLatest"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	out, err := s.repo.ListLatest(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return out, nil
}

func (s *interviewService) Delete(ctx context.Context, id, userID string) error {
	const op = "InterviewService.Delete"

	if id == "" || userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id and user_id are required", nil)
	}

	iv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	if !iv.OwnedBy(userID) {
		return utils.E(utils.CodeForbidden, op, "unauthorized", utils.ErrForbidden)
	}

	n, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete interview", err)
	}

	l := s.log.WithFields(logrus.Fields{"interview_id": id, "user_id": userID, "feedback_deleted": n})

	if err := s.cache.Del(ctx, cache.InterviewKey(id)); err != nil {
		l.WithError(err).Warn("interview cache invalidation failed")
	}
	if s.callLogs != nil {
		if _, err := s.callLogs.DeleteByInterview(ctx, id); err != nil {
			l.WithError(err).Warn("call log cleanup failed")
		}
	}
	if s.blobs != nil && iv.Defence != nil && iv.Defence.ProjectFile != nil && iv.Defence.ProjectFile.Path != "" {
		if err := s.blobs.Delete(ctx, iv.Defence.ProjectFile.Path); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			l.WithError(err).Warn("project file cleanup failed")
		}
	}

	l.Info("interview deleted")
	return nil
}
