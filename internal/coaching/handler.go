package coaching

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/grantline/grantline/internal/attachments"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/platform/httpx"
)

// Handler exposes coaching record endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the coaching HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers coaching routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/coaching", h.handleList)
	r.Post("/projects/{projectID}/coaching", h.handleCreate)
	r.Put("/coaching/{recordID}", h.handleEditBody)
	r.Put("/coaching/{recordID}/feedback", h.handleFeedback)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	records, err := h.service.ListForProject(r.Context(), actor, chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if records == nil {
		records = []domain.CoachingRecord{}
	}
	httpx.JSON(w, http.StatusOK, records)
}

type createRecordRequest struct {
	VisitDate   *time.Time        `json:"visitDate"`
	Content     string            `json:"content" validate:"required"`
	Attachments []attachments.Ref `json:"attachments"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	var req createRecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "content is required")
		return
	}
	rec := domain.CoachingRecord{
		ProjectID:   chi.URLParam(r, "projectID"),
		Content:     req.Content,
		Attachments: req.Attachments,
	}
	if req.VisitDate != nil {
		rec.VisitDate = *req.VisitDate
	}
	created, err := h.service.Create(r.Context(), actor, rec)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

type editRecordRequest struct {
	Content     string            `json:"content" validate:"required"`
	Attachments []attachments.Ref `json:"attachments"`
}

func (h *Handler) handleEditBody(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	var req editRecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "content is required")
		return
	}
	updated, err := h.service.EditBody(r.Context(), actor, chi.URLParam(r, "recordID"), req.Content, req.Attachments)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	var req feedbackRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.SetUnitFeedback(r.Context(), actor, chi.URLParam(r, "recordID"), req.Feedback)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}
