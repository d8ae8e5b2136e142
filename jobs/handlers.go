package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/grantline/grantline/internal/archive"
)

// Handlers bundles the worker-side task processors.
type Handlers struct {
	logger    *slog.Logger
	snapshots *archive.Repository
	retention time.Duration
}

// NewHandlers constructs the task processors.
func NewHandlers(logger *slog.Logger, snapshots *archive.Repository, retention time.Duration) *Handlers {
	return &Handlers{logger: logger, snapshots: snapshots, retention: retention}
}

// HandleSnapshotPersist stores the carried exchange document.
func (h *Handlers) HandleSnapshotPersist(ctx context.Context, t *asynq.Task) error {
	var payload SnapshotPersistPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := h.snapshots.Save(ctx, payload.Document); err != nil {
		h.logger.Error("persist snapshot", slog.Any("error", err))
		return err
	}
	h.logger.Info("snapshot persisted",
		slog.Time("taken_at", payload.Document.ExportDate),
		slog.Int("projects", len(payload.Document.Data.Projects)))
	return nil
}

// HandleReportNotify announces a committed report. Delivery is a log line
// until a mail channel is configured.
func (h *Handlers) HandleReportNotify(ctx context.Context, t *asynq.Task) error {
	var payload ReportNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	h.logger.Info("monthly report submitted",
		slog.String("report", payload.ReportID),
		slog.String("project", payload.ProjectID),
		slog.String("month", payload.Month))
	return nil
}

// HandleSnapshotPrune trims snapshots beyond the retention window.
func (h *Handlers) HandleSnapshotPrune(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().UTC().Add(-h.retention)
	removed, err := h.snapshots.Prune(ctx, cutoff)
	if err != nil {
		h.logger.Error("prune snapshots", slog.Any("error", err))
		return err
	}
	if removed > 0 {
		h.logger.Info("pruned snapshots", slog.Int64("removed", removed))
	}
	return nil
}
