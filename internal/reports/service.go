package reports

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grantline/grantline/internal/budget"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/policy"
	"github.com/grantline/grantline/internal/shared"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// draftIDPrefix marks the provisional handle a draft carries before commit
// assigns the real sequence identifier.
const draftIDPrefix = "draft-"

// IsDraftID reports whether id is a provisional draft handle.
func IsDraftID(id string) bool {
	return strings.HasPrefix(id, draftIDPrefix)
}

// MutateFunc rebuilds a project's report set. The repository runs it
// atomically against the current state.
type MutateFunc func(p domain.Project, existing []domain.MonthlyReport) (domain.Project, []domain.MonthlyReport, error)

// RepositoryPort defines data access for the report lifecycle.
type RepositoryPort interface {
	ProjectByID(ctx context.Context, id string) (domain.Project, error)
	ReportsForProject(ctx context.Context, projectID string) ([]domain.MonthlyReport, error)
	ReportByID(ctx context.Context, id string) (domain.MonthlyReport, error)
	MutateProjectReports(ctx context.Context, projectID string, fn MutateFunc) error
}

// Notifier is told about committed reports; implementations enqueue the
// submission notification out of band.
type Notifier interface {
	ReportSubmitted(ctx context.Context, p domain.Project, r domain.MonthlyReport)
}

// Service governs the monthly report lifecycle: draft editing, commit with
// identifier assignment, and the full-aggregate recompute that follows
// every committed change.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, now: time.Now}
}

// ListForProject returns the project's reports split into committed and
// draft sets, visibility checked.
func (s *Service) ListForProject(ctx context.Context, actor *domain.User, projectID string) (committed, drafts []domain.MonthlyReport, err error) {
	project, err := s.visibleProject(ctx, actor, projectID)
	if err != nil {
		return nil, nil, err
	}
	all, err := s.repo.ReportsForProject(ctx, project.ID)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range all {
		if r.Draft {
			drafts = append(drafts, r)
		} else {
			committed = append(committed, r)
		}
	}
	return committed, drafts, nil
}

// Get returns one report, visibility checked through its project.
func (s *Service) Get(ctx context.Context, actor *domain.User, id string) (domain.MonthlyReport, error) {
	report, err := s.repo.ReportByID(ctx, id)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	if _, err := s.visibleProject(ctx, actor, report.ProjectID); err != nil {
		return domain.MonthlyReport{}, err
	}
	return report, nil
}

// SaveDraft stores a report in draft form. Drafts have no identifier and
// are excluded from committed aggregation; they may be edited freely until
// submitted.
func (s *Service) SaveDraft(ctx context.Context, actor *domain.User, draft domain.MonthlyReport) (domain.MonthlyReport, []shared.Warning, error) {
	project, err := s.repo.ProjectByID(ctx, draft.ProjectID)
	if err != nil {
		return domain.MonthlyReport{}, nil, err
	}
	draft.Draft = true
	draft.SubmittedAt = nil
	if !policy.CanEditReport(actor, project, draft) {
		return domain.MonthlyReport{}, nil, shared.ErrPolicyViolation
	}
	if err := validateReport(draft); err != nil {
		return domain.MonthlyReport{}, nil, err
	}
	now := s.now().UTC()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now
	if draft.ID == "" {
		draft.ID = draftIDPrefix + uuid.NewString()
	}
	fillExpenditureIDs(&draft)

	var saved domain.MonthlyReport
	err = s.repo.MutateProjectReports(ctx, project.ID, func(p domain.Project, existing []domain.MonthlyReport) (domain.Project, []domain.MonthlyReport, error) {
		if stored, ok := findReport(existing, draft.ID); ok && !stored.Draft {
			// Converting submitted back to draft is not a thing.
			return p, nil, shared.ErrReportSubmitted
		}
		saved = draft
		return p, putReport(existing, saved), nil
	})
	if err != nil {
		return domain.MonthlyReport{}, nil, err
	}

	// Ceiling feedback is useful while drafting, committed totals unchanged.
	_, warnings := budget.CheckPersonnelCeiling(project, saved)
	return saved, warnings, nil
}

// Commit submits a report. A fresh report receives the next identifier from
// the project's monotonic sequence; an existing one is replaced in place.
// Either way the submission timestamp is stamped, the draft flag drops, and
// the project's cached spent total is recomputed from scratch across all
// committed reports.
func (s *Service) Commit(ctx context.Context, actor *domain.User, report domain.MonthlyReport) (domain.MonthlyReport, []shared.Warning, error) {
	project, err := s.repo.ProjectByID(ctx, report.ProjectID)
	if err != nil {
		return domain.MonthlyReport{}, nil, err
	}
	if err := validateReport(report); err != nil {
		return domain.MonthlyReport{}, nil, err
	}

	var (
		saved    domain.MonthlyReport
		warnings []shared.Warning
	)
	err = s.repo.MutateProjectReports(ctx, project.ID, func(p domain.Project, existing []domain.MonthlyReport) (domain.Project, []domain.MonthlyReport, error) {
		next := report
		if next.ID == "" || IsDraftID(next.ID) {
			if stored, ok := findReport(existing, next.ID); ok {
				if !policy.CanEditReport(actor, p, stored) {
					return p, nil, shared.ErrPolicyViolation
				}
				// The provisional draft entry gives way to the committed one.
				existing = dropReport(existing, stored.ID)
				next.CreatedAt = stored.CreatedAt
			} else {
				// A fresh commit is the tail end of drafting: gate it the
				// same way as a draft edit.
				probe := next
				probe.Draft = true
				if !policy.CanEditReport(actor, p, probe) {
					return p, nil, shared.ErrPolicyViolation
				}
			}
			seq := p.NextReportSeq
			if seq < 1 {
				// Legacy data carried no counter; seed it from the live count.
				seq = countCommitted(existing) + 1
			}
			next.ID = fmt.Sprintf("%s-MR-%02d", p.ID, seq)
			p.NextReportSeq = seq + 1
			if next.CreatedAt.IsZero() {
				next.CreatedAt = s.now().UTC()
			}
		} else {
			stored, ok := findReport(existing, next.ID)
			if !ok {
				return p, nil, shared.ErrNotFound
			}
			if !policy.CanEditReport(actor, p, stored) {
				return p, nil, shared.ErrPolicyViolation
			}
			next.CreatedAt = stored.CreatedAt
		}
		now := s.now().UTC()
		next.Draft = false
		next.SubmittedAt = &now
		next.UpdatedAt = now
		fillExpenditureIDs(&next)

		updated := putReport(existing, next)

		// No incremental delta: the cached total is always rebuilt from the
		// full committed set to avoid drift after privileged edits.
		p.Spent = budget.TotalCommitted(budget.SpentByItem(p, updated))
		p.UpdatedAt = now

		_, ceilingWarnings := budget.CheckPersonnelCeiling(p, next)
		warnings = append(warnings, ceilingWarnings...)
		_, budgetWarnings := budget.Summarize(p, updated)
		warnings = append(warnings, budgetWarnings...)

		saved = next
		return p, updated, nil
	})
	if err != nil {
		return domain.MonthlyReport{}, nil, err
	}

	if s.notifier != nil {
		s.notifier.ReportSubmitted(ctx, project, saved)
	}
	return saved, warnings, nil
}

// Delete is the administrative removal of a report. Totals recompute
// without it; the sequence counter never rewinds, so the freed identifier
// is not reused.
func (s *Service) Delete(ctx context.Context, actor *domain.User, id string) error {
	report, err := s.repo.ReportByID(ctx, id)
	if err != nil {
		return err
	}
	if report.Draft {
		// Discarding an unsubmitted draft is ordinary editing.
		project, err := s.repo.ProjectByID(ctx, report.ProjectID)
		if err != nil {
			return err
		}
		if !policy.CanEditReport(actor, project, report) {
			return shared.ErrPolicyViolation
		}
	} else if !policy.CanDeleteReport(actor) {
		return shared.ErrPolicyViolation
	}
	return s.repo.MutateProjectReports(ctx, report.ProjectID, func(p domain.Project, existing []domain.MonthlyReport) (domain.Project, []domain.MonthlyReport, error) {
		kept := make([]domain.MonthlyReport, 0, len(existing))
		for _, r := range existing {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(existing) {
			return p, nil, shared.ErrNotFound
		}
		p.Spent = budget.TotalCommitted(budget.SpentByItem(p, kept))
		p.UpdatedAt = s.now().UTC()
		return p, kept, nil
	})
}

func (s *Service) visibleProject(ctx context.Context, actor *domain.User, projectID string) (domain.Project, error) {
	project, err := s.repo.ProjectByID(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if !policy.CanViewProject(actor, project) {
		return domain.Project{}, shared.ErrPolicyViolation
	}
	return project, nil
}

// validateReport checks the month format and expenditure lines. Unknown
// budget item ids are tolerated, see budget.SpentByItem.
func validateReport(r domain.MonthlyReport) error {
	if !monthPattern.MatchString(r.Month) {
		return fmt.Errorf("%w: month must be YYYY-MM, got %q", shared.ErrValidation, r.Month)
	}
	for _, line := range r.Expenditures {
		if line.Amount < 0 {
			return fmt.Errorf("%w: expenditure amount must be non-negative", shared.ErrValidation)
		}
		if !domain.ValidSource(line.Source) {
			return fmt.Errorf("%w: unknown funding source %q", shared.ErrValidation, line.Source)
		}
	}
	return nil
}

func fillExpenditureIDs(r *domain.MonthlyReport) {
	for i := range r.Expenditures {
		if r.Expenditures[i].ID == "" {
			r.Expenditures[i].ID = uuid.NewString()
		}
	}
}

func findReport(all []domain.MonthlyReport, id string) (domain.MonthlyReport, bool) {
	for _, r := range all {
		if r.ID == id {
			return r, true
		}
	}
	return domain.MonthlyReport{}, false
}

func dropReport(all []domain.MonthlyReport, id string) []domain.MonthlyReport {
	out := make([]domain.MonthlyReport, 0, len(all))
	for _, r := range all {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func countCommitted(all []domain.MonthlyReport) int {
	n := 0
	for _, r := range all {
		if r.Committed() {
			n++
		}
	}
	return n
}

func putReport(all []domain.MonthlyReport, r domain.MonthlyReport) []domain.MonthlyReport {
	out := append([]domain.MonthlyReport(nil), all...)
	if r.ID != "" {
		for i := range out {
			if out[i].ID == r.ID {
				out[i] = r
				return out
			}
		}
	}
	return append(out, r)
}
