// Package auth authenticates users against the store and keeps a session
// audit trail in Postgres.
package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/shared"
)

// UserPort resolves accounts for credential checks.
type UserPort interface {
	UserByEmail(ctx context.Context, email string) (domain.User, error)
}

// SessionAudit records login sessions for later review.
type SessionAudit interface {
	CreateSession(ctx context.Context, id, userEmail string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// Service wraps authentication business rules.
type Service struct {
	users UserPort
	audit SessionAudit
}

// NewService constructs a new Service.
func NewService(users UserPort, audit SessionAudit) *Service {
	return &Service{users: users, audit: audit}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userEmail string, expiresAt time.Time, ip, ua string) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.CreateSession(ctx, id, userEmail, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.DeleteSession(ctx, id)
}
