package treestore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	"github.com/oksasatya/feedback-hub/internal/domain/repository"
)

type UserRepository struct {
	gw *Gateway
}

func NewUserRepository(gw *Gateway) *UserRepository {
	return &UserRepository{gw: gw}
}

func decodeUser(n Node) (*entity.User, error) {
	u := &entity.User{}
	if err := n.Decode(u); err != nil {
		return nil, err
	}
	u.Role = entity.ParseRole(string(u.Role))
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	err := r.gw.WriteIfRevision(ctx, userPath(u.UserID), u, 0)
	if apperr.IsConflict(err) {
		return apperr.Conflict("createUser", err, "User creation failed: user ID %d already exists", u.UserID)
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	n, err := r.gw.Read(ctx, userPath(id))
	if err != nil {
		return nil, apperr.Rephrase(err, "getUserById", "Error occurred while accessing the database for user ID: %d", id)
	}
	if !n.Exists {
		return nil, apperr.NotFound("getUserById", "No user found with the provided ID: %d", id)
	}
	u, err := decodeUser(n)
	if err != nil {
		return nil, apperr.Parse("getUserById", err, "User data found but failed to parse it")
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	nodes, err := r.gw.QueryByField(ctx, UsersPath, "email", email)
	if err != nil {
		return nil, apperr.Rephrase(err, "getUserByEmail", "Database read failed")
	}
	for _, n := range nodes {
		if u, err := decodeUser(n); err == nil {
			return u, nil
		}
	}
	return nil, apperr.NotFound("getUserByEmail", "No user found with email: %s", email)
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	nodes, err := r.gw.Children(ctx, UsersPath)
	if err != nil {
		return nil, apperr.Rephrase(err, "getAllUsers", "Database read failed")
	}
	out := make([]*entity.User, 0, len(nodes))
	for _, n := range nodes {
		u, err := decodeUser(n)
		if err != nil {
			r.gw.logger.WithError(err).WithField("path", n.Path).Warn("failed to parse data as user")
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := r.gw.Read(ctx, userPath(id))
	if err != nil {
		return false, err
	}
	return n.Exists, nil
}

// UpdateProfile rewrites the record with the patched profile fields under a
// conditional write, so an aggregate update racing with it is never lost.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, p entity.ProfilePatch) error {
	_, err := r.gw.Transact(ctx, userPath(id), func(cur Node) (any, error) {
		if !cur.Exists {
			return nil, apperr.NotFound("updateUser", "User not found: %d", id)
		}
		rec := map[string]json.RawMessage{}
		if err := cur.Decode(&rec); err != nil {
			return nil, apperr.Parse("updateUser", err, "User data found but failed to parse it")
		}
		for k, v := range p.Fields() {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			rec[k] = b
		}
		return rec, nil
	})
	if err != nil {
		return apperr.Rephrase(err, "updateUser", "User update failed: %v", err)
	}
	return nil
}

// SetRole overwrites the role field only.
func (r *UserRepository) SetRole(ctx context.Context, id int64, role entity.Role) error {
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("setRole", "User not found: %d", id)
	}
	return r.gw.UpdateFields(ctx, userPath(id), map[string]any{"role": role})
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.gw.Remove(ctx, userPath(id)); err != nil {
		return apperr.Rephrase(err, "deleteUser", "Failed to delete user with ID: %d. Error: %v", id, err)
	}
	return nil
}

// UpdateRating applies fn to the recipient's aggregate and writes back only
// if nobody else modified the record in between, retrying otherwise.
func (r *UserRepository) UpdateRating(ctx context.Context, id int64, fn repository.RatingMutator) (entity.Rating, error) {
	var next entity.Rating
	_, err := r.gw.Transact(ctx, userPath(id), func(cur Node) (any, error) {
		if !cur.Exists {
			return nil, apperr.NotFound("updateRating", "Recipient ID does not exist: %d", id)
		}
		rec := map[string]json.RawMessage{}
		if err := cur.Decode(&rec); err != nil {
			return nil, apperr.Parse("updateRating", err, "Failed to parse recipient data")
		}
		var rating entity.Rating
		if err := cur.Decode(&rating); err != nil {
			return nil, apperr.Parse("updateRating", err, "Failed to parse recipient data")
		}
		n, err := fn(rating)
		if err != nil {
			return nil, err
		}
		for k, v := range n.Fields() {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			rec[k] = b
		}
		next = n
		return rec, nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindStore {
			var ae *apperr.Error
			if errors.As(err, &ae) && ae.Op == "read" {
				return entity.Rating{}, apperr.Rephrase(err, "updateRating", "Failed to retrieve recipient data")
			}
		}
		return entity.Rating{}, apperr.Rephrase(err, "updateRating", "Failed to update recipient data")
	}
	r.gw.logger.WithFields(logrus.Fields{
		"user_id":          id,
		"average_rating":   next.AverageRating,
		"number_reviewers": next.NumberReviewers,
	}).Debug("recipient aggregate updated")
	return next, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
