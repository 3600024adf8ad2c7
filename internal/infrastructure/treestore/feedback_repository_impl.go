package treestore

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	"github.com/oksasatya/feedback-hub/internal/domain/repository"
)

type FeedbackRepository struct {
	gw *Gateway
}

func NewFeedbackRepository(gw *Gateway) *FeedbackRepository {
	return &FeedbackRepository{gw: gw}
}

func (r *FeedbackRepository) NextID() string { return r.gw.PushKey(FeedbacksPath) }

func (r *FeedbackRepository) Create(ctx context.Context, f *entity.Feedback) error {
	if err := r.gw.Write(ctx, feedbackPath(f.FeedbackID), f); err != nil {
		return apperr.Rephrase(err, "saveFeedback", "Feedback creation failed")
	}
	return nil
}

func (r *FeedbackRepository) GetByID(ctx context.Context, id string) (*entity.Feedback, error) {
	if !ValidKey(id) {
		return nil, apperr.NotFound("getFeedbackById", "No feedback found with the provided ID: %s", id)
	}
	n, err := r.gw.Read(ctx, feedbackPath(id))
	if err != nil {
		return nil, apperr.Rephrase(err, "getFeedbackById", "Error occurred while accessing the database for feedback ID: %s", id)
	}
	if !n.Exists {
		return nil, apperr.NotFound("getFeedbackById", "No feedback found with the provided ID: %s", id)
	}
	f := &entity.Feedback{}
	if err := n.Decode(f); err != nil {
		return nil, apperr.Parse("getFeedbackById", err, "Feedback data found but failed to parse it")
	}
	if f.FeedbackID == "" {
		f.FeedbackID = n.Key
	}
	return f, nil
}

func (r *FeedbackRepository) decodeAll(op string, nodes []Node) []*entity.Feedback {
	out := make([]*entity.Feedback, 0, len(nodes))
	for _, n := range nodes {
		f := &entity.Feedback{}
		if err := n.Decode(f); err != nil {
			r.gw.logger.WithError(err).WithFields(logrus.Fields{"op": op, "path": n.Path}).Warn("failed to parse data as feedback")
			continue
		}
		if f.FeedbackID == "" {
			f.FeedbackID = n.Key
		}
		out = append(out, f)
	}
	return out
}

func (r *FeedbackRepository) List(ctx context.Context) ([]*entity.Feedback, error) {
	nodes, err := r.gw.Children(ctx, FeedbacksPath)
	if err != nil {
		return nil, apperr.Rephrase(err, "getAllFeedbacks", "Database read failed")
	}
	return r.decodeAll("getAllFeedbacks", nodes), nil
}

func (r *FeedbackRepository) ListByReviewer(ctx context.Context, reviewerID int64) ([]*entity.Feedback, error) {
	nodes, err := r.gw.QueryByField(ctx, FeedbacksPath, "reviewerId", reviewerID)
	if err != nil {
		return nil, apperr.Rephrase(err, "getAllFeedbacksByReviewerId", "Database read failed")
	}
	return r.decodeAll("getAllFeedbacksByReviewerId", nodes), nil
}

func (r *FeedbackRepository) ListByRecipient(ctx context.Context, recipientID int64) ([]*entity.Feedback, error) {
	nodes, err := r.gw.QueryByField(ctx, FeedbacksPath, "recipientId", recipientID)
	if err != nil {
		return nil, apperr.Rephrase(err, "getAllFeedbacksByRecipientId", "Database read failed")
	}
	return r.decodeAll("getAllFeedbacksByRecipientId", nodes), nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	if err := r.gw.Remove(ctx, feedbackPath(id)); err != nil {
		return apperr.Rephrase(err, "deleteFeedback", "Failed to delete feedback with ID: %s", id)
	}
	return nil
}

var _ repository.FeedbackRepository = (*FeedbackRepository)(nil)
