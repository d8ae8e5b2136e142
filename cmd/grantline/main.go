package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/crypto/bcrypt"

	"github.com/grantline/grantline/internal/app"
	"github.com/grantline/grantline/internal/archive"
	"github.com/grantline/grantline/internal/attachments"
	"github.com/grantline/grantline/internal/auth"
	"github.com/grantline/grantline/internal/budget"
	"github.com/grantline/grantline/internal/coaching"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/interchange"
	"github.com/grantline/grantline/internal/observability"
	"github.com/grantline/grantline/internal/platform/cache"
	"github.com/grantline/grantline/internal/platform/db"
	"github.com/grantline/grantline/internal/projects"
	"github.com/grantline/grantline/internal/reports"
	"github.com/grantline/grantline/internal/shared"
	"github.com/grantline/grantline/internal/store"
	"github.com/grantline/grantline/internal/users"
	"github.com/grantline/grantline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Warn("postgres unavailable, snapshots and audit disabled", slog.Any("error", err))
		pool = nil
	}
	defer func() {
		if pool != nil {
			pool.Close()
		}
	}()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "grantline_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(pool)

	var snapshots *archive.Repository
	if pool != nil {
		snapshots = archive.NewRepository(pool)
	}

	directory := users.NewDirectory(pool)

	initial := loadInitialState(ctx, logger, snapshots)
	if accounts, err := directory.LoadAll(ctx); err != nil {
		logger.Warn("load accounts", slog.Any("error", err))
	} else {
		initial.Users = accounts
	}
	initial = ensureBootstrapAdmin(ctx, logger, cfg, directory, initial)
	st := store.New(initial)

	var jobClient *jobs.Client
	if cfg.SnapshotEnabled {
		jobClient = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, logger)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		debounce := jobs.NewDebouncer(cfg.SnapshotInterval)
		st.OnCommit(func(ctx context.Context, state store.State) {
			if !debounce.Allow(time.Now()) {
				return
			}
			doc := interchange.Export(state, time.Now())
			if err := jobClient.EnqueueSnapshotPersist(ctx, doc); err != nil {
				logger.Warn("enqueue snapshot", slog.Any("error", err))
			}
		})
	}

	converter := attachments.NewConverter(cfg.AttachmentMaxBytes, cfg.AllowedMIMEs())

	authService := auth.NewService(st, auth.NewSessionAudit(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	projectsService := projects.NewService(st, converter)
	projectsHandler := projects.NewHandler(logger, projectsService, auditLogger, cfg.AttachmentMaxBytes)

	var notifier reports.Notifier
	if jobClient != nil {
		notifier = jobClient
	}
	reportsService := reports.NewService(st, notifier)
	reportsHandler := reports.NewHandler(logger, reportsService, auditLogger)

	budgetHandler := budget.NewHandler(logger, st)

	coachingService := coaching.NewService(st)
	coachingHandler := coaching.NewHandler(logger, coachingService)

	usersService := users.NewService(st)
	usersHandler := users.NewHandler(logger, usersService)

	interchangeHandler := interchange.NewHandler(logger, st, auditLogger)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		Actors:             st,
		AuthHandler:        authHandler,
		ProjectsHandler:    projectsHandler,
		ReportsHandler:     reportsHandler,
		BudgetHandler:      budgetHandler,
		CoachingHandler:    coachingHandler,
		UsersHandler:       usersHandler,
		InterchangeHandler: interchangeHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// loadInitialState restores the dataset from the latest snapshot, or starts
// empty when none exists.
func loadInitialState(ctx context.Context, logger *slog.Logger, snapshots *archive.Repository) store.State {
	if snapshots == nil {
		return store.State{}
	}
	doc, err := snapshots.Latest(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			logger.Warn("load snapshot", slog.Any("error", err))
		}
		return store.State{}
	}
	logger.Info("restored dataset from snapshot",
		slog.Time("taken_at", doc.ExportDate),
		slog.Int("projects", len(doc.Data.Projects)))
	return store.State{
		Projects:        doc.Data.Projects,
		MonthlyReports:  doc.Data.MonthlyReports,
		CoachingRecords: doc.Data.CoachingRecords,
	}
}

// ensureBootstrapAdmin seeds one admin account on an empty user table so the
// first deployment can sign in.
func ensureBootstrapAdmin(ctx context.Context, logger *slog.Logger, cfg *app.Config, directory *users.PGDirectory, st store.State) store.State {
	if len(st.Users) > 0 || cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		return st
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash bootstrap password", slog.Any("error", err))
		return st
	}
	admin := domain.User{
		ID:           uuid.NewString(),
		Email:        cfg.BootstrapAdminEmail,
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := directory.Insert(ctx, admin); err != nil {
		logger.Warn("persist bootstrap admin", slog.Any("error", err))
	}
	st.Users = append(st.Users, admin)
	logger.Info("seeded bootstrap admin", slog.String("email", cfg.BootstrapAdminEmail))
	return st
}
