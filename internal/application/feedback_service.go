package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	"github.com/oksasatya/feedback-hub/internal/domain/repository"
)

type CreateFeedbackInput struct {
	ReviewerID   int64
	RecipientID  int64
	FeedbackText string
	Grade        int
}

// FeedbackService owns the feedback lifecycle and keeps the recipient's
// rating in step with it.
type FeedbackService struct {
	feedbacks  repository.FeedbackRepository
	users      repository.UserRepository
	aggregates *AggregateUpdater
	notifier   *Notifier
	logger     *logrus.Logger
	now        func() time.Time
}

func NewFeedbackService(feedbacks repository.FeedbackRepository, users repository.UserRepository, aggregates *AggregateUpdater, notifier *Notifier, logger *logrus.Logger) *FeedbackService {
	return &FeedbackService{
		feedbacks:  feedbacks,
		users:      users,
		aggregates: aggregates,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the clock used to stamp new feedback
func (s *FeedbackService) WithClock(now func() time.Time) *FeedbackService {
	s.now = now
	return s
}

func validateFeedback(in CreateFeedbackInput) error {
	if in.ReviewerID == in.RecipientID {
		return apperr.Validation("createFeedback", "Reviewer ID must not be the same as Recipient ID")
	}
	if in.Grade < entity.MinGrade {
		return apperr.Validation("createFeedback", "Grade must be at least %d", entity.MinGrade)
	}
	if in.Grade > entity.MaxGrade {
		return apperr.Validation("createFeedback", "Grade must be no more than %d", entity.MaxGrade)
	}
	return nil
}

func (s *FeedbackService) checkUserExists(ctx context.Context, id int64, userType string) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return apperr.Rephrase(err, "checkUserExists", "Failed to check %s ID: %d", userType, id)
	}
	if !ok {
		return apperr.NotFound("checkUserExists", "%s ID does not exist: %d", userType, id)
	}
	return nil
}

// CreateFeedback checks both users, applies the grade to the recipient and
// then writes the feedback record. A failure at any step ends the operation.
func (s *FeedbackService) CreateFeedback(ctx context.Context, in CreateFeedbackInput) (*entity.Feedback, error) {
	var (
		fb     *entity.Feedback
		rating entity.Rating
	)
	err := newPipeline("createFeedback", s.logger).
		then(StageChecking, func(ctx context.Context) error {
			if err := validateFeedback(in); err != nil {
				return err
			}
			if err := s.checkUserExists(ctx, in.ReviewerID, "Reviewer"); err != nil {
				return err
			}
			return s.checkUserExists(ctx, in.RecipientID, "Recipient")
		}).
		then(StageAllocating, func(ctx context.Context) error {
			fb = &entity.Feedback{
				FeedbackID:   s.feedbacks.NextID(),
				ReviewerID:   in.ReviewerID,
				RecipientID:  in.RecipientID,
				FeedbackText: in.FeedbackText,
				Grade:        in.Grade,
				Timestamp:    s.now().UnixMilli(),
			}
			return nil
		}).
		then(StageAggregating, func(ctx context.Context) error {
			var err error
			rating, err = s.aggregates.Apply(ctx, in.RecipientID, in.Grade)
			return err
		}).
		then(StagePersisting, func(ctx context.Context) error {
			return s.feedbacks.Create(ctx, fb)
		}).
		run(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("feedback_id", fb.FeedbackID).Info("feedback successfully saved")
	s.notifyRecipient(ctx, fb, rating)
	return fb, nil
}

func (s *FeedbackService) notifyRecipient(ctx context.Context, fb *entity.Feedback, rating entity.Rating) {
	if s.notifier == nil {
		return
	}
	u, err := s.users.GetByID(ctx, fb.RecipientID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", fb.RecipientID).Warn("skipping feedback notification")
		return
	}
	s.notifier.FeedbackReceived(ctx, u.Name, u.Email, fb.FeedbackID, fb.ReviewerID, fb.Grade, fb.FeedbackText, rating, fb.CreatedAt())
}

// DeleteFeedbackByID reverses the grade on the recipient, then removes the record.
func (s *FeedbackService) DeleteFeedbackByID(ctx context.Context, id string) error {
	var fb *entity.Feedback
	err := newPipeline("deleteFeedbackById", s.logger).
		then(StageChecking, func(ctx context.Context) error {
			var err error
			fb, err = s.feedbacks.GetByID(ctx, id)
			switch {
			case apperr.IsNotFound(err):
				return apperr.NotFound("deleteFeedbackById", "Feedback with ID: %s does not exist.", id)
			case apperr.IsParse(err):
				return apperr.Parse("deleteFeedbackById", err, "Failed to parse feedback data or recipientId is missing.")
			case err != nil:
				return apperr.Rephrase(err, "deleteFeedbackById", "Failed to check feedback ID")
			case fb.RecipientID == 0:
				return apperr.Parse("deleteFeedbackById", nil, "Failed to parse feedback data or recipientId is missing.")
			}
			return nil
		}).
		then(StageAggregating, func(ctx context.Context) error {
			_, err := s.aggregates.Reverse(ctx, fb.RecipientID, fb.Grade)
			if err != nil {
				return apperr.Rephrase(err, "updateRecipientDataOnDeletion", "%v after feedback deletion", err)
			}
			return nil
		}).
		then(StagePersisting, func(ctx context.Context) error {
			return s.feedbacks.Delete(ctx, id)
		}).
		run(ctx)
	if err != nil {
		return err
	}
	s.logger.WithField("feedback_id", id).Info("feedback deleted")
	return nil
}

func (s *FeedbackService) GetFeedbackByID(ctx context.Context, id string) (*entity.Feedback, error) {
	return s.feedbacks.GetByID(ctx, id)
}

func (s *FeedbackService) GetAllFeedbacks(ctx context.Context) ([]*entity.Feedback, error) {
	return s.feedbacks.List(ctx)
}

func (s *FeedbackService) GetFeedbacksByReviewer(ctx context.Context, reviewerID int64) ([]*entity.Feedback, error) {
	return s.feedbacks.ListByReviewer(ctx, reviewerID)
}

func (s *FeedbackService) GetFeedbacksByRecipient(ctx context.Context, recipientID int64) ([]*entity.Feedback, error) {
	return s.feedbacks.ListByRecipient(ctx, recipientID)
}
