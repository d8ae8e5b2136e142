package interchange

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grantline/grantline/internal/budget"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/platform/httpx"
	"github.com/grantline/grantline/internal/policy"
	"github.com/grantline/grantline/internal/shared"
	"github.com/grantline/grantline/internal/store"
)

// Handler serves dataset export/import and the CSV extracts.
type Handler struct {
	logger *slog.Logger
	store  *store.Store
	audit  *shared.AuditLogger
	now    func() time.Time
}

// NewHandler constructs the interchange HTTP handler.
func NewHandler(logger *slog.Logger, st *store.Store, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, store: st, audit: audit, now: time.Now}
}

// MountRoutes registers interchange routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/export", h.handleExport)
	r.Post("/import", h.handleImport)
	r.Get("/projects/{projectID}/export/budget.csv", h.handleBudgetCSV)
	r.Get("/projects/{projectID}/export/reports.csv", h.handleReportsCSV)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, shared.ErrNoActor)
		return
	}
	if !actor.Is(domain.RoleAdmin) {
		httpx.RespondError(w, shared.ErrPolicyViolation)
		return
	}
	doc := Export(h.store.Snapshot(), h.now())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=grantline-%s.json", doc.ExportDate.Format("20060102-150405")))
	if err := EncodeJSON(w, doc); err != nil {
		h.logger.Error("export encode", slog.Any("error", err))
	}
	h.recordAudit(r.Context(), actor, "dataset.export", "dataset")
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, shared.ErrNoActor)
		return
	}
	if !actor.Is(domain.RoleAdmin) {
		httpx.RespondError(w, shared.ErrPolicyViolation)
		return
	}
	st, err := ParseJSON(r.Body)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.store.ReplaceData(r.Context(), st); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "dataset.import", "dataset")
	httpx.JSON(w, http.StatusOK, map[string]int{
		"projects":        len(st.Projects),
		"monthlyReports":  len(st.MonthlyReports),
		"coachingRecords": len(st.CoachingRecords),
	})
}

func (h *Handler) handleBudgetCSV(w http.ResponseWriter, r *http.Request) {
	p, reports, ok := h.visibleProject(w, r)
	if !ok {
		return
	}
	summary, _ := budget.Summarize(p, reports)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-budget.csv", p.ID))
	if err := WriteBudgetCSV(w, p, summary); err != nil {
		h.logger.Error("budget csv", slog.String("project", p.ID), slog.Any("error", err))
	}
}

func (h *Handler) handleReportsCSV(w http.ResponseWriter, r *http.Request) {
	p, reports, ok := h.visibleProject(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-reports.csv", p.ID))
	if err := WriteReportsCSV(w, p, reports); err != nil {
		h.logger.Error("reports csv", slog.String("project", p.ID), slog.Any("error", err))
	}
}

func (h *Handler) visibleProject(w http.ResponseWriter, r *http.Request) (domain.Project, []domain.MonthlyReport, bool) {
	actor := domain.ActorFromContext(r.Context())
	st := h.store.Snapshot()
	p, found := st.ProjectByID(chi.URLParam(r, "projectID"))
	if !found {
		httpx.RespondError(w, fmt.Errorf("%w: project", shared.ErrNotFound))
		return domain.Project{}, nil, false
	}
	if !policy.CanViewProject(actor, p) {
		httpx.RespondError(w, shared.ErrPolicyViolation)
		return domain.Project{}, nil, false
	}
	return p, st.ReportsForProject(p.ID), true
}

func (h *Handler) recordAudit(ctx context.Context, actor *domain.User, action, entityID string) {
	if err := h.audit.Record(ctx, shared.AuditLog{ActorEmail: actor.Email, Action: action, Entity: "dataset", EntityID: entityID}); err != nil {
		h.logger.Warn("audit write", slog.Any("error", err))
	}
}
