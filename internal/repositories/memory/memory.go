// Package memory is an in-process document store. It is selected only with
// STORE_DRIVER=memory and backs the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/repositories"
	"github.com/yoockh/yoodefence/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds both collections under one lock so cascades are atomic.
type Store struct {
	mu         sync.RWMutex
	interviews map[string]models.Interview
	feedback   map[string]models.Feedback
}

func NewStore() *Store {
	return &Store{
		interviews: map[string]models.Interview{},
		feedback:   map[string]models.Feedback{},
	}
}

func (s *Store) Interviews() repositories.InterviewRepository { return interviewRepo{s} }

func (s *Store) Feedback() repositories.FeedbackRepository { return feedbackRepo{s} }

func newID() string { return primitive.NewObjectID().Hex() }

type interviewRepo struct{ s *Store }

func (r interviewRepo) Create(_ context.Context, i *models.Interview) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	i.ID = newID()
	r.s.interviews[i.ID] = cloneInterview(*i)
	return nil
}

func (r interviewRepo) GetByID(_ context.Context, id string) (*models.Interview, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i, ok := r.s.interviews[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := cloneInterview(i)
	return &out, nil
}

func (r interviewRepo) ListByUser(_ context.Context, userID string) ([]models.Interview, error) {
	return r.list(func(i models.Interview) bool { return i.UserID == userID }, 0), nil
}

func (r interviewRepo) ListLatest(_ context.Context, excludeUserID string, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.list(func(i models.Interview) bool {
		return i.Finalized && i.UserID != excludeUserID
	}, limit), nil
}

func (r interviewRepo) list(keep func(models.Interview) bool, limit int) []models.Interview {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Interview{}
	for _, i := range r.s.interviews {
		if keep(i) {
			out = append(out, cloneInterview(i))
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r interviewRepo) DeleteCascade(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.interviews[id]; !ok {
		return 0, utils.ErrNotFound
	}
	var n int64
	for fid, f := range r.s.feedback {
		if f.InterviewID == id {
			delete(r.s.feedback, fid)
			n++
		}
	}
	delete(r.s.interviews, id)
	return n, nil
}

type feedbackRepo struct{ s *Store }

func (r feedbackRepo) Save(_ context.Context, f *models.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.ID == "" {
		f.ID = newID()
	}
	r.s.feedback[f.ID] = cloneFeedback(*f)
	return nil
}

func (r feedbackRepo) GetByID(_ context.Context, id string) (*models.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.feedback[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := cloneFeedback(f)
	return &out, nil
}

func (r feedbackRepo) FindByInterview(_ context.Context, interviewID, userID string) (*models.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *models.Feedback
	for _, f := range r.s.feedback {
		if f.InterviewID != interviewID || f.UserID != userID {
			continue
		}
		if best == nil || f.CreatedAt.After(best.CreatedAt) {
			c := cloneFeedback(f)
			best = &c
		}
	}
	if best == nil {
		return nil, utils.ErrNotFound
	}
	return best, nil
}

func (r feedbackRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.feedback[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.feedback, id)
	return nil
}

func cloneInterview(i models.Interview) models.Interview {
	i.Questions = append([]string(nil), i.Questions...)
	if i.Defence != nil {
		d := *i.Defence
		d.TechnologiesUsed = append([]string(nil), d.TechnologiesUsed...)
		if d.ProjectFile != nil {
			pf := *d.ProjectFile
			d.ProjectFile = &pf
		}
		i.Defence = &d
	}
	if i.Job != nil {
		j := *i.Job
		j.TechStack = append([]string(nil), j.TechStack...)
		i.Job = &j
	}
	return i
}

func cloneFeedback(f models.Feedback) models.Feedback {
	f.CategoryScores = append([]models.CategoryScore(nil), f.CategoryScores...)
	f.Strengths = append([]string(nil), f.Strengths...)
	f.AreasForImprovement = append([]string(nil), f.AreasForImprovement...)
	f.Transcript = append([]models.TranscriptMessage(nil), f.Transcript...)
	return f
}
