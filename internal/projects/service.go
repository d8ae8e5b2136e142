// Package projects serves project reads and the grant-stage checklist
// operations, all behind the visibility policy.
package projects

import (
	"context"
	"fmt"
	"time"

	"github.com/grantline/grantline/internal/attachments"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/grants"
	"github.com/grantline/grantline/internal/policy"
	"github.com/grantline/grantline/internal/shared"
)

// UpdateFunc rebuilds one project. The repository runs it atomically.
type UpdateFunc func(domain.Project) (domain.Project, error)

// RepositoryPort defines data access for projects.
type RepositoryPort interface {
	AllProjects(ctx context.Context) ([]domain.Project, error)
	ProjectByID(ctx context.Context, id string) (domain.Project, error)
	UpdateProject(ctx context.Context, id string, fn UpdateFunc) (domain.Project, error)
}

// Service handles project queries and grant stage mutations.
type Service struct {
	repo      RepositoryPort
	converter *attachments.Converter
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, converter *attachments.Converter) *Service {
	return &Service{repo: repo, converter: converter, now: time.Now}
}

// List returns the projects visible to the actor, stages merged with the
// current templates.
func (s *Service) List(ctx context.Context, actor *domain.User) ([]domain.Project, error) {
	if actor == nil {
		return nil, shared.ErrNoActor
	}
	all, err := s.repo.AllProjects(ctx)
	if err != nil {
		return nil, err
	}
	visible := policy.VisibleProjects(actor, all)
	out := make([]domain.Project, len(visible))
	for i, p := range visible {
		p.Grants = p.StagesMerged()
		out[i] = p
	}
	return out, nil
}

// Get returns one project, visibility checked, stages merged.
func (s *Service) Get(ctx context.Context, actor *domain.User, id string) (domain.Project, error) {
	p, err := s.repo.ProjectByID(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if !policy.CanViewProject(actor, p) {
		return domain.Project{}, shared.ErrPolicyViolation
	}
	p.Grants = p.StagesMerged()
	return p, nil
}

// Save creates or replaces a project's basic and budget data. Admin only;
// the grant stages and cached spent total of an existing project survive
// unless explicitly provided.
func (s *Service) Save(ctx context.Context, actor *domain.User, p domain.Project) (domain.Project, error) {
	if !policy.CanEditProject(actor, p) {
		return domain.Project{}, shared.ErrPolicyViolation
	}
	if p.ID == "" {
		return domain.Project{}, fmt.Errorf("%w: project id required", shared.ErrValidation)
	}
	for _, item := range p.BudgetItems {
		switch item.Category {
		case domain.CategoryPersonnel, domain.CategoryOperating, domain.CategoryMiscellaneous:
		default:
			return domain.Project{}, fmt.Errorf("%w: unknown budget category %q", shared.ErrValidation, item.Category)
		}
	}
	return s.repo.UpdateProject(ctx, p.ID, func(prev domain.Project) (domain.Project, error) {
		next := p
		if next.CreatedAt.IsZero() {
			next.CreatedAt = prev.CreatedAt
		}
		if next.CreatedAt.IsZero() {
			next.CreatedAt = s.now().UTC()
		}
		if next.Grants == nil {
			next.Grants = prev.Grants
		}
		if next.NextReportSeq < prev.NextReportSeq {
			next.NextReportSeq = prev.NextReportSeq
		}
		next.Spent = prev.Spent
		next.UpdatedAt = s.now().UTC()
		return next, nil
	})
}

// EditDocument applies a status edit to one checklist document.
func (s *Service) EditDocument(ctx context.Context, actor *domain.User, projectID string, ordinal int, docName string, edit grants.DocumentEdit) (grants.Stage, []shared.Warning, error) {
	var warnings []shared.Warning
	stage, err := s.mutateStage(ctx, actor, projectID, ordinal, policyToggle, func(st grants.Stage) (grants.Stage, error) {
		next, w, err := grants.ApplyDocumentEdit(st, docName, edit)
		warnings = w
		return next, err
	})
	return stage, warnings, err
}

// UploadDocument converts the file and records it on the document. The
// conversion runs to completion first; on failure nothing changes.
func (s *Service) UploadDocument(ctx context.Context, actor *domain.User, projectID string, ordinal int, docName, fileName, mime string, data []byte) (grants.Stage, error) {
	ref, err := s.converter.Convert(fileName, mime, data)
	if err != nil {
		return grants.Stage{}, err
	}
	return s.mutateStage(ctx, actor, projectID, ordinal, policyToggle, func(st grants.Stage) (grants.Stage, error) {
		return grants.AttachFile(st, docName, ref)
	})
}

// ClearDocument removes an uploaded file, reverting the upload side effect.
func (s *Service) ClearDocument(ctx context.Context, actor *domain.User, projectID string, ordinal int, docName string) (grants.Stage, error) {
	return s.mutateStage(ctx, actor, projectID, ordinal, policyToggle, func(st grants.Stage) (grants.Stage, error) {
		return grants.ClearFile(st, docName)
	})
}

// SetStageFinalCheck records the authority sign-off. Admin only.
func (s *Service) SetStageFinalCheck(ctx context.Context, actor *domain.User, projectID string, ordinal int, status grants.StageStatus) (grants.Stage, error) {
	return s.mutateStage(ctx, actor, projectID, ordinal, policyAuthority, func(st grants.Stage) (grants.Stage, error) {
		return grants.SetFinalCheck(st, status)
	})
}

// SetStageDates updates the document-sent and payment-received dates. Admin only.
func (s *Service) SetStageDates(ctx context.Context, actor *domain.User, projectID string, ordinal int, sent, received *time.Time) (grants.Stage, error) {
	return s.mutateStage(ctx, actor, projectID, ordinal, policyAuthority, func(st grants.Stage) (grants.Stage, error) {
		return grants.SetDates(st, sent, received), nil
	})
}

type stagePolicy int

const (
	policyToggle stagePolicy = iota
	policyAuthority
)

func (s *Service) mutateStage(ctx context.Context, actor *domain.User, projectID string, ordinal int, gate stagePolicy, fn func(grants.Stage) (grants.Stage, error)) (grants.Stage, error) {
	if ordinal < 1 || ordinal > grants.StageCount {
		return grants.Stage{}, fmt.Errorf("%w: stage ordinal must be 1..%d", shared.ErrValidation, grants.StageCount)
	}
	var result grants.Stage
	_, err := s.repo.UpdateProject(ctx, projectID, func(p domain.Project) (domain.Project, error) {
		switch gate {
		case policyAuthority:
			if !policy.CanSetStageStatus(actor) {
				return p, shared.ErrPolicyViolation
			}
		default:
			if !policy.CanToggleDocument(actor, p) {
				return p, shared.ErrPolicyViolation
			}
		}
		merged := p.StagesMerged()
		next, err := fn(merged[ordinal-1])
		if err != nil {
			return p, err
		}
		merged[ordinal-1] = next
		p.Grants = merged
		p.UpdatedAt = s.now().UTC()
		result = next
		return p, nil
	})
	if err != nil {
		return grants.Stage{}, err
	}
	return result, nil
}
