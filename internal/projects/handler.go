package projects

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/grants"
	"github.com/grantline/grantline/internal/platform/httpx"
	"github.com/grantline/grantline/internal/shared"
)

// Handler exposes project and grant stage endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	validator *validator.Validate
	maxUpload int64
}

// NewHandler constructs the projects HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, maxUpload int64) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		audit:     audit,
		validator: validator.New(),
		maxUpload: maxUpload,
	}
}

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects", h.handleList)
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleSave)
		r.Route("/stages/{ordinal}", func(r chi.Router) {
			r.Patch("/documents", h.handleEditDocument)
			r.Post("/documents/file", h.handleUploadDocument)
			r.Delete("/documents/file", h.handleClearDocument)
			r.Put("/final-check", h.handleFinalCheck)
			r.Put("/dates", h.handleDates)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	list, err := h.service.List(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	p, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	var p domain.Project
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p.ID = chi.URLParam(r, "projectID")
	saved, err := h.service.Save(r.Context(), actor, p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "project.save", saved.ID, nil)
	httpx.JSON(w, http.StatusOK, saved)
}

type documentEditRequest struct {
	Name    string  `json:"name" validate:"required"`
	Status  string  `json:"status" validate:"required"`
	Checked *bool   `json:"checked"`
	Remark  *string `json:"remark"`
}

func (h *Handler) handleEditDocument(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	ordinal, ok := stageOrdinal(w, r)
	if !ok {
		return
	}
	var req documentEditRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name and status are required")
		return
	}
	edit := grants.DocumentEdit{Status: grants.DocStatus(req.Status), Checked: req.Checked, Remark: req.Remark}
	stage, warnings, err := h.service.EditDocument(r.Context(), actor, chi.URLParam(r, "projectID"), ordinal, req.Name, edit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "grant.document.edit", chi.URLParam(r, "projectID"), map[string]any{"stage": ordinal, "document": req.Name})
	httpx.JSONWithWarnings(w, http.StatusOK, stage, warnings)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	ordinal, ok := stageOrdinal(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed multipart body")
		return
	}
	docName := r.FormValue("document")
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file field required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unreadable upload")
		return
	}
	stage, err := h.service.UploadDocument(r.Context(), actor, chi.URLParam(r, "projectID"), ordinal, docName, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "grant.document.upload", chi.URLParam(r, "projectID"), map[string]any{"stage": ordinal, "document": docName, "file": header.Filename})
	httpx.JSON(w, http.StatusOK, stage)
}

func (h *Handler) handleClearDocument(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	ordinal, ok := stageOrdinal(w, r)
	if !ok {
		return
	}
	docName := r.URL.Query().Get("document")
	stage, err := h.service.ClearDocument(r.Context(), actor, chi.URLParam(r, "projectID"), ordinal, docName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "grant.document.clear", chi.URLParam(r, "projectID"), map[string]any{"stage": ordinal, "document": docName})
	httpx.JSON(w, http.StatusOK, stage)
}

type finalCheckRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleFinalCheck(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	ordinal, ok := stageOrdinal(w, r)
	if !ok {
		return
	}
	var req finalCheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "status is required")
		return
	}
	stage, err := h.service.SetStageFinalCheck(r.Context(), actor, chi.URLParam(r, "projectID"), ordinal, grants.StageStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r.Context(), actor, "grant.stage.final_check", chi.URLParam(r, "projectID"), map[string]any{"stage": ordinal, "status": req.Status})
	httpx.JSON(w, http.StatusOK, stage)
}

type stageDatesRequest struct {
	DocumentSentAt    *time.Time `json:"documentSentAt"`
	PaymentReceivedAt *time.Time `json:"paymentReceivedAt"`
}

func (h *Handler) handleDates(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	ordinal, ok := stageOrdinal(w, r)
	if !ok {
		return
	}
	var req stageDatesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	stage, err := h.service.SetStageDates(r.Context(), actor, chi.URLParam(r, "projectID"), ordinal, req.DocumentSentAt, req.PaymentReceivedAt)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stage)
}


func (h *Handler) recordAudit(ctx context.Context, actor *domain.User, action, entityID string, meta map[string]any) {
	email := ""
	if actor != nil {
		email = actor.Email
	}
	if err := h.audit.Record(ctx, shared.AuditLog{ActorEmail: email, Action: action, Entity: "project", EntityID: entityID, Meta: meta}); err != nil {
		h.logger.Warn("audit write", slog.Any("error", err))
	}
}

func stageOrdinal(w http.ResponseWriter, r *http.Request) (int, bool) {
	ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "stage ordinal must be a number")
		return 0, false
	}
	return ordinal, true
}
