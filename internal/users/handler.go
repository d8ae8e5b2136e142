package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/platform/httpx"
)

// Handler exposes the account directory.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the users HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())
	list, err := h.service.ListUsers(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []domain.User{}
	}
	httpx.JSON(w, http.StatusOK, list)
}
