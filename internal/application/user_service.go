package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	repo "github.com/oksasatya/feedback-hub/internal/domain/repository"
	"github.com/oksasatya/feedback-hub/pkg/helpers"
)

// UserIndex is the search side of the user records. It is kept up to date
// best-effort; the tree store stays the source of truth.
type UserIndex interface {
	Index(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, q string, size int) ([]*entity.User, error)
}

type CreateUserInput struct {
	Email       string
	Name        string
	PhoneNumber string
	Password    string
}

// UpdateUserInput overlays the profile; empty fields keep their stored value.
type UpdateUserInput struct {
	Email       string
	Name        string
	PhoneNumber string
	Password    string
}

type UserService struct {
	users    repo.UserRepository
	ids      *IDAllocator
	index    UserIndex
	notifier *Notifier
	logger   *logrus.Logger
	hash     func(string) (string, error)
}

func NewUserService(users repo.UserRepository, ids *IDAllocator, index UserIndex, notifier *Notifier, logger *logrus.Logger) *UserService {
	return &UserService{
		users:    users,
		ids:      ids,
		index:    index,
		notifier: notifier,
		logger:   logger,
		hash:     helpers.HashPassword,
	}
}

// CreateUser reserves the next id, hashes the password and writes the record
// with an empty rating and the default role.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	u := &entity.User{
		Email:       in.Email,
		Name:        in.Name,
		PhoneNumber: in.PhoneNumber,
		Role:        entity.DefaultRole,
	}
	err := newPipeline("createUser", s.logger).
		then(StageAllocating, func(ctx context.Context) error {
			id, err := s.ids.Next(ctx)
			if err != nil {
				return err
			}
			u.UserID = id
			return nil
		}).
		then(StagePersisting, func(ctx context.Context) error {
			hashed, err := s.hash(in.Password)
			if err != nil {
				return apperr.Store("createUser", err, "User creation failed: %v", err)
			}
			u.HashedPassword = hashed
			return s.users.Create(ctx, u)
		}).
		run(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", u.UserID).Info("user created")
	s.reindex(ctx, u)
	s.notifier.Welcome(ctx, u.UserID, u.Name, u.Email)
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*entity.User, error) {
	return s.users.List(ctx)
}

// UpdateUser rewrites the profile fields only; the rating is left untouched.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) error {
	patch := entity.ProfilePatch{Email: in.Email, Name: in.Name, PhoneNumber: in.PhoneNumber}
	err := newPipeline("updateUser", s.logger).
		then(StageChecking, func(ctx context.Context) error {
			if in.Password == "" {
				return nil
			}
			hashed, err := s.hash(in.Password)
			if err != nil {
				return apperr.Store("updateUser", err, "User update failed: %v", err)
			}
			patch.HashedPassword = hashed
			return nil
		}).
		then(StagePersisting, func(ctx context.Context) error {
			return s.users.UpdateProfile(ctx, id, patch)
		}).
		run(ctx)
	if err != nil {
		return err
	}
	if s.index != nil {
		if u, gErr := s.users.GetByID(ctx, id); gErr == nil {
			s.reindex(ctx, u)
		}
	}
	return nil
}

// DeleteUser removes the record. Feedback that references the user is kept.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	err := newPipeline("deleteUser", s.logger).
		then(StageChecking, func(ctx context.Context) error {
			ok, err := s.users.Exists(ctx, id)
			if err != nil {
				return apperr.Rephrase(err, "deleteUser", "Failed to check user ID: %d", id)
			}
			if !ok {
				return apperr.NotFound("deleteUser", "User with ID: %d does not exist.", id)
			}
			return nil
		}).
		then(StagePersisting, func(ctx context.Context) error {
			return s.users.Delete(ctx, id)
		}).
		run(ctx)
	if err != nil {
		return err
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	if s.index != nil {
		if rErr := s.index.Remove(ctx, id); rErr != nil {
			s.logger.WithError(rErr).WithField("user_id", id).Warn("search index removal failed")
		}
	}
	return nil
}

// Promote grants the administrator role
func (s *UserService) Promote(ctx context.Context, id int64) error {
	if err := s.users.SetRole(ctx, id, entity.RoleAdministrator); err != nil {
		return err
	}
	s.logger.WithField("user_id", id).Info("user promoted to administrator")
	return nil
}

// SearchUsers queries the search index; without one it finds nothing.
func (s *UserService) SearchUsers(ctx context.Context, q string, size int) ([]*entity.User, error) {
	if s.index == nil {
		return []*entity.User{}, nil
	}
	return s.index.Search(ctx, q, size)
}

func (s *UserService) reindex(ctx context.Context, u *entity.User) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, u); err != nil {
		s.logger.WithError(err).WithField("user_id", u.UserID).Warn("search index update failed")
	}
}
