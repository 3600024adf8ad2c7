package application

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	"github.com/oksasatya/feedback-hub/internal/domain/repository"
)

// round2 rounds half up to two decimals
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// ApplyGrade adds one grade to r
func ApplyGrade(r entity.Rating, grade int) entity.Rating {
	n := r.NumberReviewers + 1
	return entity.Rating{
		NumberReviewers: n,
		AverageRating:   round2((r.AverageRating*float64(r.NumberReviewers) + float64(grade)) / float64(n)),
	}
}

// ReverseGrade removes one grade from r. Removing the last grade resets the
// average to exactly zero; the count never drops below zero.
func ReverseGrade(r entity.Rating, grade int) entity.Rating {
	n := r.NumberReviewers - 1
	if n <= 0 {
		return entity.Rating{}
	}
	return entity.Rating{
		NumberReviewers: n,
		AverageRating:   round2((r.AverageRating*float64(r.NumberReviewers) - float64(grade)) / float64(n)),
	}
}

// AggregateUpdater persists grade contributions on a recipient's rating.
type AggregateUpdater struct {
	users  repository.UserRepository
	logger *logrus.Logger
}

func NewAggregateUpdater(users repository.UserRepository, logger *logrus.Logger) *AggregateUpdater {
	return &AggregateUpdater{users: users, logger: logger}
}

func (a *AggregateUpdater) Apply(ctx context.Context, recipientID int64, grade int) (entity.Rating, error) {
	return a.update(ctx, "apply", recipientID, grade, ApplyGrade)
}

func (a *AggregateUpdater) Reverse(ctx context.Context, recipientID int64, grade int) (entity.Rating, error) {
	return a.update(ctx, "reverse", recipientID, grade, ReverseGrade)
}

func (a *AggregateUpdater) update(ctx context.Context, direction string, recipientID int64, grade int, f func(entity.Rating, int) entity.Rating) (entity.Rating, error) {
	next, err := a.users.UpdateRating(ctx, recipientID, func(cur entity.Rating) (entity.Rating, error) {
		return f(cur, grade), nil
	})
	if err != nil {
		return entity.Rating{}, err
	}
	a.logger.WithFields(logrus.Fields{
		"user_id":   recipientID,
		"direction": direction,
		"grade":     grade,
		"average":   next.AverageRating,
		"reviewers": next.NumberReviewers,
	}).Info("recipient rating updated")
	return next, nil
}
