package reports

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/platform/httpx"
	"github.com/grantline/grantline/internal/shared"
)

// Handler exposes the monthly report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	audit   *shared.AuditLogger
}

// NewHandler constructs the reports HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, audit: audit}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/reports", h.handleList)
	r.Put("/projects/{projectID}/reports/draft", h.handleSaveDraft)
	r.Post("/projects/{projectID}/reports/commit", h.handleCommit)
	r.Get("/reports/{reportID}", h.handleGet)
	r.Delete("/reports/{reportID}", h.handleDelete)
}

type listResponse struct {
	Committed []domain.MonthlyReport `json:"committed"`
	Drafts    []domain.MonthlyReport `json:"drafts"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	committed, drafts, err := h.service.ListForProject(r.Context(), actor, chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if committed == nil {
		committed = []domain.MonthlyReport{}
	}
	if drafts == nil {
		drafts = []domain.MonthlyReport{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Committed: committed, Drafts: drafts})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	report, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "reportID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	var draft domain.MonthlyReport
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.RespondError(w, err)
		return
	}
	draft.ProjectID = chi.URLParam(r, "projectID")
	saved, warnings, err := h.service.SaveDraft(r.Context(), actor, draft)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "report.draft.save", saved.ID, map[string]any{"project": saved.ProjectID, "month": saved.Month})
	httpx.JSONWithWarnings(w, http.StatusOK, saved, warnings)
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	var report domain.MonthlyReport
	if err := httpx.DecodeJSON(r, &report); err != nil {
		httpx.RespondError(w, err)
		return
	}
	report.ProjectID = chi.URLParam(r, "projectID")
	committed, warnings, err := h.service.Commit(r.Context(), actor, report)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "report.commit", committed.ID, map[string]any{"project": committed.ProjectID, "month": committed.Month})
	httpx.JSONWithWarnings(w, http.StatusCreated, committed, warnings)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	id := chi.URLParam(r, "reportID")
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "report.delete", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordAudit(ctx context.Context, actor *domain.User, action, entityID string, meta map[string]any) {
	email := ""
	if actor != nil {
		email = actor.Email
	}
	if err := h.audit.Record(ctx, shared.AuditLog{ActorEmail: email, Action: action, Entity: "report", EntityID: entityID, Meta: meta}); err != nil {
		h.logger.Warn("audit write", slog.Any("error", err))
	}
}
