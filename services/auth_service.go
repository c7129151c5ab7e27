package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"wardsync/apperrors"
	"wardsync/cache"
	"wardsync/models"
	"wardsync/store"
	authUtils "wardsync/utils"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	WardID   string
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService owns the session lifecycle: Login starts a session, Logout
// ends it, Authenticate turns a bearer token back into a Session.
type AuthService struct {
	users    store.UserStore
	wards    store.WardStore
	denylist cache.Denylist
	secret   string
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return nil, apperrors.Validation("Name, email and password are required")
	}

	role := models.RoleCitizen
	if in.Role != "" {
		role = models.Role(in.Role)
		if !role.Valid() {
			return nil, apperrors.Validation("Invalid role")
		}
	}

	var wardID *primitive.ObjectID
	if role == models.RoleAuthority {
		if in.WardID == "" {
			return nil, apperrors.Validation("Authorities must be assigned to a ward")
		}
		id, err := primitive.ObjectIDFromHex(in.WardID)
		if err != nil {
			return nil, apperrors.Validation("Invalid ward ID")
		}
		if _, err := s.wards.FindWardByID(ctx, id); err != nil {
			return nil, storeError(err, "ward")
		}
		wardID = &id
	}

	now := s.now()
	user := &models.User{
		Name:      name,
		Email:     email,
		Password:  in.Password,
		Role:      role,
		WardID:    wardID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict("User with this email already exists")
		}
		return nil, apperrors.Internal(err)
	}

	if wardID != nil {
		if err := s.wards.AddWardAdmin(ctx, *wardID, user.ID); err != nil {
			return nil, storeError(err, "ward")
		}
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, apperrors.Internal(err)
	}
	if !user.ComparePassword(password) {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	return s.issue(user)
}

// Refresh rotates the session's token. The new token is built from the
// stored user, and the old one is revoked.
func (s *AuthService) Refresh(ctx context.Context, sess models.Session) (*LoginResult, error) {
	user, err := s.users.FindUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthorized("User no longer exists")
		}
		return nil, apperrors.Internal(err)
	}

	res, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if s.denylist != nil {
		if err := s.denylist.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
			return nil, apperrors.Internal(err)
		}
	}

	s.logger.Info("session refreshed", zap.String("user_id", user.ID.Hex()))
	return res, nil
}

func (s *AuthService) issue(user *models.User) (*LoginResult, error) {
	wardID := ""
	if user.WardID != nil {
		wardID = user.WardID.Hex()
	}
	token, _, expiresAt, err := authUtils.GenerateToken(s.secret, user.ID.Hex(), string(user.Role), wardID, s.ttl, s.now())
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate verifies the token and rebuilds the Session it stands for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	claims, err := authUtils.ParseToken(s.secret, token)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, apperrors.Unauthorized("Invalid authorization token")
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.Id)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if revoked {
			return nil, apperrors.Unauthorized("Session has been logged out")
		}
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid token claims")
	}
	sess := &models.Session{
		UserID:    userID,
		Role:      models.Role(claims.Role),
		TokenID:   claims.Id,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}
	if claims.WardID != "" {
		wardID, err := primitive.ObjectIDFromHex(claims.WardID)
		if err != nil {
			return nil, apperrors.Unauthorized("Invalid token claims")
		}
		sess.WardID = &wardID
	}
	return sess, nil
}

// Logout revokes the session's token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, sess models.Session) error {
	if s.denylist == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return apperrors.Internal(err)
	}
	s.logger.Info("session ended", zap.String("user_id", sess.UserID.Hex()))
	return nil
}

func (s *AuthService) Me(ctx context.Context, sess models.Session) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}
