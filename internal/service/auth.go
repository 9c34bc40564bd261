package service

import (
	"context"
	"errors"
	"time"

	"github.com/coursehub/feedback-service/internal/apperr"
	"github.com/coursehub/feedback-service/internal/hash"
	"github.com/coursehub/feedback-service/internal/logging"
	"github.com/coursehub/feedback-service/internal/models"
	"github.com/coursehub/feedback-service/internal/mykafka"
	"github.com/coursehub/feedback-service/internal/repo"
	"github.com/coursehub/feedback-service/internal/tokens"
	"github.com/coursehub/feedback-service/internal/validate"
)

type AuthService struct {
	Repo     *repo.GormRepo
	Tokens   *tokens.Service
	Producer *mykafka.Producer
}

type TokenPair struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	RefreshExp   time.Time
}

// ClientInfo carries diagnostic request metadata stored alongside the
// hashed refresh token.
type ClientInfo struct {
	UserAgent string
	IP        string
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string, client ClientInfo) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	if !validate.Name(name) {
		return nil, apperr.Wrap(apperr.ErrValidation, "name must be between 2 and 100 characters")
	}
	if !validate.Email(email) {
		return nil, apperr.Wrap(apperr.ErrValidation, "invalid email format")
	}
	if !validate.Password(password) {
		return nil, apperr.Wrap(apperr.ErrValidation,
			"password must be at least 8 characters long, include a number and a special character")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("signup_error", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleStudent,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			l.Warn("signup_conflict", "email", email)
		}
		return nil, err
	}

	pair, err := s.issuePair(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, mykafka.TopicUserEvents, user, map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	})
	l.Info("signup_successful", "user_id", user.ID)
	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	// Same message for unknown email and wrong password, so responses
	// cannot be used to enumerate accounts.
	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrAuth, "invalid credentials")
		}
		return nil, err
	}
	if user.Blocked {
		l.Warn("login_blocked", "user_id", user.ID)
		return nil, apperr.Wrap(apperr.ErrForbidden, "account is blocked")
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Wrap(apperr.ErrAuth, "invalid credentials")
	}

	pair, err := s.issuePair(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, mykafka.TopicUserEvents, user, map[string]any{
		"type":    "user_logged_in",
		"user_id": user.ID,
		"email":   user.Email,
	})
	l.Info("login_successful", "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a valid, stored refresh token for a new access token.
// The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.ParseRefresh(rawToken)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrAuth, "invalid or expired refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", apperr.Wrap(apperr.ErrAuth, "invalid or expired refresh token")
	}

	stored, err := s.Repo.RefreshTokenByHash(ctx, userID, tokens.Sha256Hex(rawToken))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.Wrap(apperr.ErrAuth, "refresh token not recognized")
		}
		return "", err
	}
	if time.Now().After(stored.ExpiresAt) {
		if err := s.Repo.DeleteRefreshToken(ctx, stored.ID); err != nil {
			l.Error("refresh_cleanup_failed", "error", err)
		}
		return "", apperr.Wrap(apperr.ErrAuth, "refresh token expired")
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.Wrap(apperr.ErrAuth, "user not found")
		}
		return "", err
	}
	if user.Blocked {
		return "", apperr.Wrap(apperr.ErrForbidden, "account is blocked")
	}

	accessToken, _, err := s.Tokens.SignAccess(user.ID, user.Role)
	if err != nil {
		return "", err
	}
	return accessToken, nil
}

// Logout deletes every stored record matching the presented token's hash.
// It succeeds even when nothing matched.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	return s.Repo.DeleteRefreshTokensByHash(ctx, tokens.Sha256Hex(rawToken))
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User, client ClientInfo) (*TokenPair, error) {
	accessToken, _, err := s.Tokens.SignAccess(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.Tokens.SignRefresh(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: tokens.Sha256Hex(refreshToken),
		JTI:       claims.ID,
		UserAgent: client.UserAgent,
		IP:        client.IP,
		ExpiresAt: refreshExp,
	}
	if err := s.Repo.SaveRefreshToken(ctx, record); err != nil {
		return nil, err
	}

	return &TokenPair{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, topic string, user *models.User, event map[string]any) {
	if s.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, topic, itoa(user.ID), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "error", err)
	}
}
