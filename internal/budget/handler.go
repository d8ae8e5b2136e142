package budget

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/platform/httpx"
	"github.com/grantline/grantline/internal/policy"
	"github.com/grantline/grantline/internal/shared"
)

// DataPort supplies the project and report data the summary needs.
type DataPort interface {
	ProjectByID(ctx context.Context, id string) (domain.Project, error)
	ReportsForProject(ctx context.Context, projectID string) ([]domain.MonthlyReport, error)
}

// Handler serves budget summaries. Concurrent requests for the same project
// share one computation through singleflight.
type Handler struct {
	logger *slog.Logger
	data   DataPort
	group  singleflight.Group
}

// NewHandler constructs the budget HTTP handler.
func NewHandler(logger *slog.Logger, data DataPort) *Handler {
	return &Handler{logger: logger, data: data}
}

// MountRoutes registers budget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/budget", h.handleSummary)
}

type summaryResult struct {
	summary  Summary
	warnings []shared.Warning
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	p, err := h.data.ProjectByID(r.Context(), projectID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !policy.CanViewProject(actor, p) {
		httpx.RespondError(w, shared.ErrPolicyViolation)
		return
	}

	v, err, _ := h.group.Do(projectID, func() (any, error) {
		reports, err := h.data.ReportsForProject(r.Context(), projectID)
		if err != nil {
			return nil, fmt.Errorf("load reports: %w", err)
		}
		summary, warnings := Summarize(p, reports)
		return summaryResult{summary: summary, warnings: warnings}, nil
	})
	if err != nil {
		h.logger.Error("budget summary", slog.String("project", projectID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	result := v.(summaryResult)
	httpx.JSONWithWarnings(w, http.StatusOK, result.summary, result.warnings)
}
