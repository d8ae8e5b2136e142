// Package coaching manages coaching records and unit feedback.
package coaching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grantline/grantline/internal/attachments"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/policy"
	"github.com/grantline/grantline/internal/shared"
)

// UpdateFunc rebuilds one record. The repository runs it atomically.
type UpdateFunc func(domain.CoachingRecord) (domain.CoachingRecord, error)

// RepositoryPort defines data access for coaching records.
type RepositoryPort interface {
	ProjectByID(ctx context.Context, id string) (domain.Project, error)
	RecordsForProject(ctx context.Context, projectID string) ([]domain.CoachingRecord, error)
	RecordByID(ctx context.Context, id string) (domain.CoachingRecord, error)
	InsertRecord(ctx context.Context, rec domain.CoachingRecord) error
	UpdateRecord(ctx context.Context, id string, fn UpdateFunc) (domain.CoachingRecord, error)
}

// Service handles the coaching record lifecycle.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListForProject returns the project's records, visibility checked.
func (s *Service) ListForProject(ctx context.Context, actor *domain.User, projectID string) ([]domain.CoachingRecord, error) {
	if _, err := s.visibleProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.repo.RecordsForProject(ctx, projectID)
}

// Create stores a new record stamped with the actor's identity and role.
// Admins and coaches may author records.
func (s *Service) Create(ctx context.Context, actor *domain.User, rec domain.CoachingRecord) (domain.CoachingRecord, error) {
	if actor == nil {
		return domain.CoachingRecord{}, shared.ErrNoActor
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleCoach {
		return domain.CoachingRecord{}, shared.ErrPolicyViolation
	}
	if _, err := s.visibleProject(ctx, actor, rec.ProjectID); err != nil {
		return domain.CoachingRecord{}, err
	}
	if strings.TrimSpace(rec.Content) == "" {
		return domain.CoachingRecord{}, fmt.Errorf("%w: content required", shared.ErrValidation)
	}
	now := s.now().UTC()
	rec.ID = uuid.NewString()
	if rec.VisitDate.IsZero() {
		rec.VisitDate = now
	}
	rec.AuthorID = actor.ID
	rec.AuthorName = actor.Name
	rec.AuthoredByRole = actor.Role
	rec.UnitFeedback = ""
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := s.repo.InsertRecord(ctx, rec); err != nil {
		return domain.CoachingRecord{}, err
	}
	return rec, nil
}

// EditBody rewrites the record content and attachments. Admins may edit any
// record; a coach only their own coach-authored ones.
func (s *Service) EditBody(ctx context.Context, actor *domain.User, id, content string, files []attachments.Ref) (domain.CoachingRecord, error) {
	return s.repo.UpdateRecord(ctx, id, func(rec domain.CoachingRecord) (domain.CoachingRecord, error) {
		if !policy.CanEditRecord(actor, rec) {
			return rec, shared.ErrPolicyViolation
		}
		if strings.TrimSpace(content) == "" {
			return rec, fmt.Errorf("%w: content required", shared.ErrValidation)
		}
		rec.Content = content
		if files != nil {
			rec.Attachments = files
		}
		rec.UpdatedAt = s.now().UTC()
		return rec, nil
	})
}

// SetUnitFeedback records the unit's response on an existing record.
// Operators of the owning unit and admins only.
func (s *Service) SetUnitFeedback(ctx context.Context, actor *domain.User, id, feedback string) (domain.CoachingRecord, error) {
	current, err := s.repo.RecordByID(ctx, id)
	if err != nil {
		return domain.CoachingRecord{}, err
	}
	p, err := s.repo.ProjectByID(ctx, current.ProjectID)
	if err != nil {
		return domain.CoachingRecord{}, err
	}
	if !policy.CanEditUnitFeedback(actor, p) {
		return domain.CoachingRecord{}, shared.ErrPolicyViolation
	}
	return s.repo.UpdateRecord(ctx, id, func(rec domain.CoachingRecord) (domain.CoachingRecord, error) {
		rec.UnitFeedback = feedback
		rec.UpdatedAt = s.now().UTC()
		return rec, nil
	})
}

func (s *Service) visibleProject(ctx context.Context, actor *domain.User, projectID string) (domain.Project, error) {
	p, err := s.repo.ProjectByID(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if !policy.CanViewProject(actor, p) {
		return domain.Project{}, shared.ErrPolicyViolation
	}
	return p, nil
}
