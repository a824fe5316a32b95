// Package repositories declares the document store contracts. The mongo
// package implements them for production and memory for local runs and tests.
package repositories

import (
	"context"

	"github.com/yoockh/yoodefence/internal/models"
)

type InterviewRepository interface {
	// Create assigns i.ID.
	Create(ctx context.Context, i *models.Interview) error
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	// ListByUser returns the user's interviews newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Interview, error)
	// ListLatest returns finalized interviews of everyone except excludeUserID.
	ListLatest(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error)
	// DeleteCascade removes the interview and every feedback referencing it
	// as one unit and reports how many feedback records went with it.
	DeleteCascade(ctx context.Context, id string) (int64, error)
}

type FeedbackRepository interface {
	// Save inserts when f.ID is empty (assigning it) and replaces otherwise.
	Save(ctx context.Context, f *models.Feedback) error
	GetByID(ctx context.Context, id string) (*models.Feedback, error)
	FindByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
	Delete(ctx context.Context, id string) error
}
