package repository

import (
	"context"

	"github.com/oksasatya/feedback-hub/internal/domain/entity"
)

// RatingMutator computes the next aggregate from the current one. It may be
// invoked more than once when a concurrent writer wins the conditional write.
type RatingMutator func(current entity.Rating) (entity.Rating, error)

// UserRepository defines the store operations on users/{id} records.
type UserRepository interface {
	// Create writes u only if no record exists under its id.
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// UpdateProfile overlays the non-aggregate fields of an existing record.
	UpdateProfile(ctx context.Context, id int64, p entity.ProfilePatch) error
	SetRole(ctx context.Context, id int64, role entity.Role) error
	Delete(ctx context.Context, id int64) error
	// UpdateRating runs fn against the stored aggregate under a conditional write.
	UpdateRating(ctx context.Context, id int64, fn RatingMutator) (entity.Rating, error)
}

// CounterRepository hands out sequential ids from a single counter node.
type CounterRepository interface {
	// Reserve atomically increments the counter and returns the new value.
	Reserve(ctx context.Context) (int64, error)
	Current(ctx context.Context) (int64, error)
}
