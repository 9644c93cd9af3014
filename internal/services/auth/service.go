package auth

import (
	"context"
	"errors"
	"time"

	"tpos/internal/models"
	"tpos/internal/utils"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("admin privileges required")
)

type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	ParseToken(token string) (*models.UserClaims, error)
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type service struct {
	users  UserStore
	secret string
	ttl    time.Duration
	log    *logrus.Entry
}

func NewService(users UserStore, secret string, ttl time.Duration) Service {
	return &service{
		users:  users,
		secret: secret,
		ttl:    ttl,
		log:    logrus.WithField("component", "auth"),
	}
}

// Login checks an admin's password and returns a signed access token.
func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.log.WithField("username", username).Warn("login failed: unknown user")
		return "", ErrInvalidCredentials
	}

	if !utils.CheckPassword(user.Password, password) {
		s.log.WithField("user_id", user.ID).Warn("login failed: incorrect password")
		return "", ErrInvalidCredentials
	}

	if user.Role != models.RoleAdmin {
		return "", ErrNotAdmin
	}

	token, err := utils.GenerateToken(s.secret, s.ttl, &models.UserClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		s.log.WithError(err).Error("error generating token")
		return "", errors.New("error generating token")
	}

	return token, nil
}

func (s *service) ParseToken(token string) (*models.UserClaims, error) {
	return utils.ParseToken(s.secret, token)
}
