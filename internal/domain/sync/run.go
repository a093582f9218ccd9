package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/franchise/backend/internal/domain/shared"
)

// RunStatus is the terminal state of one sync run
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusPartial RunStatus = "PARTIAL"
	RunStatusFailed  RunStatus = "FAILED"
)

// IsValid returns true if the status is a known run status
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusRunning, RunStatusSuccess, RunStatusPartial, RunStatusFailed:
		return true
	default:
		return false
	}
}

// RunTrigger records what started a run
type RunTrigger string

const (
	RunTriggerManual    RunTrigger = "MANUAL"
	RunTriggerScheduled RunTrigger = "SCHEDULED"
)

// Run is one entry in the append-only sync-run log. Operator dashboards
// render these as partial-success reports ("480 updated, 3 errors"), so the
// counts and error summary are first-class columns rather than a blob.
type Run struct {
	shared.BaseAggregateRoot
	Trigger            RunTrigger `gorm:"type:varchar(20);not null"`
	Status             RunStatus  `gorm:"type:varchar(20);not null;default:'RUNNING'"`
	DryRun             bool       `gorm:"not null;default:false"`
	PagesFetched       int        `gorm:"not null;default:0"`
	Created            int        `gorm:"not null;default:0"`
	Updated            int        `gorm:"not null;default:0"`
	Unchanged          int        `gorm:"not null;default:0"`
	ErrorCount         int        `gorm:"not null;default:0"`
	LinksCreated       int        `gorm:"not null;default:0"`
	OrphansDeactivated int        `gorm:"not null;default:0"`
	ErrorsJSON         string     `gorm:"type:jsonb;column:errors"`
	StartedAt          time.Time  `gorm:"not null;index"`
	FinishedAt         *time.Time
	DurationMS         int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Run) TableName() string {
	return "sync_runs"
}

// NewRun opens a run log entry
func NewRun(trigger RunTrigger, dryRun bool) *Run {
	return &Run{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Trigger:           trigger,
		Status:            RunStatusRunning,
		DryRun:            dryRun,
		ErrorsJSON:        "[]",
		StartedAt:         time.Now(),
	}
}

// Finish closes the run with its outcome. The status degrades to PARTIAL
// when some work succeeded alongside errors, and to FAILED when nothing did.
func (r *Run) Finish(result RunResult) {
	now := time.Now()
	r.FinishedAt = &now
	r.DurationMS = now.Sub(r.StartedAt).Milliseconds()
	r.PagesFetched = result.PagesFetched
	r.Created = result.Upsert.Created
	r.Updated = result.Upsert.Updated
	r.Unchanged = result.Upsert.Unchanged
	r.ErrorCount = len(result.Errors)
	r.LinksCreated = result.Reconcile.LinksCreated
	r.OrphansDeactivated = result.Reconcile.OrphansDeactivated
	r.UpdatedAt = now

	if raw, err := json.Marshal(result.Errors); err == nil {
		r.ErrorsJSON = string(raw)
	}

	switch {
	case len(result.Errors) == 0:
		r.Status = RunStatusSuccess
	case result.Upsert.Created+result.Upsert.Updated+result.Upsert.Unchanged > 0:
		r.Status = RunStatusPartial
	default:
		r.Status = RunStatusFailed
	}
}

// RunRepository persists the append-only run log
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
