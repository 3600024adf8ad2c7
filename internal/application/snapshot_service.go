package application

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	repo "github.com/oksasatya/feedback-hub/internal/domain/repository"
)

// ObjectPutter stores one object and returns its URL
type ObjectPutter interface {
	Put(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// Snapshot mirrors the tree layout: users/{id}, feedbacks/{key}, userIdCounter.
type Snapshot struct {
	TakenAt       time.Time                   `json:"takenAt"`
	UserIDCounter int64                       `json:"userIdCounter"`
	Users         map[string]*entity.User     `json:"users"`
	Feedbacks     map[string]*entity.Feedback `json:"feedbacks"`
}

type SnapshotService struct {
	users     repo.UserRepository
	feedbacks repo.FeedbackRepository
	counters  repo.CounterRepository
	store     ObjectPutter
	prefix    string
	logger    *logrus.Logger
	now       func() time.Time
}

func NewSnapshotService(users repo.UserRepository, feedbacks repo.FeedbackRepository, counters repo.CounterRepository, store ObjectPutter, prefix string, logger *logrus.Logger) *SnapshotService {
	return &SnapshotService{
		users:     users,
		feedbacks: feedbacks,
		counters:  counters,
		store:     store,
		prefix:    prefix,
		logger:    logger,
		now:       time.Now,
	}
}

// Build reads the whole tree. Reads are not isolated from concurrent writers.
func (s *SnapshotService) Build(ctx context.Context) (*Snapshot, error) {
	counter, err := s.counters.Current(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	feedbacks, err := s.feedbacks.List(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		TakenAt:       s.now().UTC(),
		UserIDCounter: counter,
		Users:         make(map[string]*entity.User, len(users)),
		Feedbacks:     make(map[string]*entity.Feedback, len(feedbacks)),
	}
	for _, u := range users {
		snap.Users[u.Key()] = u
	}
	for _, f := range feedbacks {
		snap.Feedbacks[f.FeedbackID] = f
	}
	return snap, nil
}

// Export builds a snapshot and uploads it as one JSON object.
func (s *SnapshotService) Export(ctx context.Context) (string, error) {
	snap, err := s.Build(ctx)
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", apperr.Parse("exportSnapshot", err, "Failed to encode snapshot: %v", err)
	}
	name := path.Join(s.prefix, "snapshot-"+snap.TakenAt.Format("20060102T150405Z")+".json")
	url, err := s.store.Put(ctx, name, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Store("exportSnapshot", err, "Failed to upload snapshot: %v", err)
	}
	s.logger.WithFields(logrus.Fields{
		"object":    url,
		"users":     len(snap.Users),
		"feedbacks": len(snap.Feedbacks),
	}).Info("snapshot exported")
	return url, nil
}
