package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	repo "github.com/oksasatya/feedback-hub/internal/domain/repository"
	"github.com/oksasatya/feedback-hub/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

const sessionTTL = 24 * time.Hour

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// AuthService logs users in with email and password and tracks one session
// per user in a Redis hash.
type AuthService struct {
	users  repo.UserRepository
	jwt    *helpers.JWTManager
	redis  *redis.Client
	logger *logrus.Logger
}

func NewAuthService(users repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *AuthService {
	return &AuthService{users: users, jwt: jwt, redis: rdb, logger: logger}
}

func sessionKey(userID int64) string {
	return "user:session:" + strconv.FormatInt(userID, 10)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	if helpers.NeedsRehash(u.HashedPassword) {
		s.rehash(ctx, u, password)
	}
	return u, nil
}

// rehash upgrades a stored hash to the current cost; failures keep the old hash.
func (s *AuthService) rehash(ctx context.Context, u *entity.User, password string) {
	hash, err := helpers.HashPassword(password)
	if err == nil {
		err = s.users.UpdateProfile(ctx, u.UserID, entity.ProfilePatch{HashedPassword: hash})
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", u.UserID).Warn("password rehash failed")
		return
	}
	u.HashedPassword = hash
	s.logger.WithField("user_id", u.UserID).Info("password hash upgraded")
}

func (s *AuthService) issue(u *entity.User, sid string) (TokenPair, error) {
	access, aexp, err := s.jwt.GenerateAccessToken(u.UserID, string(u.Role), sid)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", u.UserID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.jwt.GenerateRefreshToken(u.UserID, string(u.Role), sid)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", u.UserID).Error("generate refresh token failed")
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) storeSession(ctx context.Context, userID int64, fields map[string]any) error {
	key := sessionKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, sessionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Login authenticates and opens a fresh session, replacing any earlier one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	sid := uuid.NewString()
	pair, err := s.issue(u, sid)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.storeSession(ctx, u.UserID, map[string]any{
		"user_id":    u.UserID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       string(u.Role),
		"sid":        sid,
		"created_at": nowRFC3339(),
	}); err != nil {
		s.logger.WithError(err).WithField("user_id", u.UserID).Error("session store failed")
		return nil, TokenPair{}, err
	}
	s.logger.WithField("user_id", u.UserID).Info("user logged in")
	return u, pair, nil
}

// ValidateSession reports whether sid is the user's current session.
func (s *AuthService) ValidateSession(ctx context.Context, userID int64, sid string) error {
	got, err := s.redis.HGet(ctx, sessionKey(userID), "sid").Result()
	if errors.Is(err, redis.Nil) || (err == nil && got != sid) {
		return ErrSessionNotFound
	}
	return err
}

// Refresh rotates the session id and both tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, int64, error) {
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	if err := s.ValidateSession(ctx, claims.UserID, claims.SessionID); err != nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	sid := uuid.NewString()
	pair, err := s.issue(u, sid)
	if err != nil {
		return TokenPair{}, 0, err
	}
	if err := s.storeSession(ctx, u.UserID, map[string]any{
		"sid":        sid,
		"role":       string(u.Role),
		"updated_at": nowRFC3339(),
	}); err != nil {
		return TokenPair{}, 0, err
	}
	return pair, u.UserID, nil
}

func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.redis.Del(ctx, sessionKey(userID)).Err()
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*entity.User, error) {
	return s.users.GetByID(ctx, userID)
}
