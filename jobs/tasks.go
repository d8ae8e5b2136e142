// Package jobs defines the background tasks of the service: snapshot
// persistence and report submission notifications. Task payloads are self
// contained because the worker process does not share the API server's
// in-memory store.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/grantline/grantline/internal/interchange"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotPersist writes a dataset snapshot to Postgres.
	TaskSnapshotPersist = "snapshot:persist"
	// TaskReportNotify announces a committed monthly report.
	TaskReportNotify = "report:notify"
	// TaskSnapshotPrune trims old snapshots past the retention window.
	TaskSnapshotPrune = "snapshot:prune"
)

// SnapshotPersistPayload carries the full exchange document to persist.
type SnapshotPersistPayload struct {
	Document interchange.Document `json:"document"`
}

// NewSnapshotPersistTask constructs an Asynq task.
func NewSnapshotPersistTask(payload SnapshotPersistPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotPersist, data), nil
}

// ReportNotifyPayload describes a committed report.
type ReportNotifyPayload struct {
	ReportID    string `json:"reportId"`
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Month       string `json:"month"`
}

// NewReportNotifyTask constructs an Asynq task.
func NewReportNotifyTask(payload ReportNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportNotify, data), nil
}

// NewSnapshotPruneTask constructs the scheduled prune task.
func NewSnapshotPruneTask() *asynq.Task {
	return asynq.NewTask(TaskSnapshotPrune, nil)
}
