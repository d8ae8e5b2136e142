package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/grantline/grantline/internal/auth"
	"github.com/grantline/grantline/internal/budget"
	"github.com/grantline/grantline/internal/coaching"
	"github.com/grantline/grantline/internal/interchange"
	"github.com/grantline/grantline/internal/observability"
	"github.com/grantline/grantline/internal/projects"
	"github.com/grantline/grantline/internal/reports"
	"github.com/grantline/grantline/internal/shared"
	"github.com/grantline/grantline/internal/users"
	"github.com/grantline/grantline/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Actors         ActorResolver

	AuthHandler        *auth.Handler
	ProjectsHandler    *projects.Handler
	ReportsHandler     *reports.Handler
	BudgetHandler      *budget.Handler
	CoachingHandler    *coaching.Handler
	UsersHandler       *users.Handler
	InterchangeHandler *interchange.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router serving the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Actors:         params.Actors,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		params.ProjectsHandler.MountRoutes(r)
		params.ReportsHandler.MountRoutes(r)
		params.BudgetHandler.MountRoutes(r)
		params.CoachingHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r)
		params.InterchangeHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
