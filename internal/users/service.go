// Package users manages actor accounts.
package users

import (
	"context"

	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
}

// Service handles actor account queries.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all accounts; admin only.
func (s *Service) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if actor == nil {
		return nil, shared.ErrNoActor
	}
	if !actor.Is(domain.RoleAdmin) {
		return nil, shared.ErrPolicyViolation
	}
	return s.repo.ListUsers(ctx)
}

// ByEmail resolves an account by email.
func (s *Service) ByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.repo.UserByEmail(ctx, email)
}
