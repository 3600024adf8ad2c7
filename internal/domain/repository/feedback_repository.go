package repository

import (
	"context"

	"github.com/oksasatya/feedback-hub/internal/domain/entity"
)

// FeedbackRepository defines the store operations on feedbacks/{key} records.
type FeedbackRepository interface {
	// NextID returns a fresh, sortable, collision-free key. It never touches the store.
	NextID() string
	Create(ctx context.Context, f *entity.Feedback) error
	GetByID(ctx context.Context, id string) (*entity.Feedback, error)
	List(ctx context.Context) ([]*entity.Feedback, error)
	ListByReviewer(ctx context.Context, reviewerID int64) ([]*entity.Feedback, error)
	ListByRecipient(ctx context.Context, recipientID int64) ([]*entity.Feedback, error)
	Delete(ctx context.Context, id string) error
}
