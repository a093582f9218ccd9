package sync

import (
	"encoding/json"
	"time"

	domainsync "github.com/franchise/backend/internal/domain/sync"
	"github.com/google/uuid"
)

// SyncRequest triggers one catalog sync run
type SyncRequest struct {
	Page       int    `json:"page" binding:"omitempty,min=1"`
	PageSize   int    `json:"page_size" binding:"omitempty,min=1,max=500"`
	ExternalID string `json:"external_id"`
	DryRun     bool   `json:"dry_run"`
	Scheduled  bool   `json:"-"`
}

func (r SyncRequest) trigger() domainsync.RunTrigger {
	if r.Scheduled {
		return domainsync.RunTriggerScheduled
	}
	return domainsync.RunTriggerManual
}

// RunResponse represents one sync run in API responses
type RunResponse struct {
	ID                 uuid.UUID             `json:"id"`
	Trigger            string                `json:"trigger"`
	Status             string                `json:"status"`
	DryRun             bool                  `json:"dry_run"`
	PagesFetched       int                   `json:"pages_fetched"`
	Created            int                   `json:"created"`
	Updated            int                   `json:"updated"`
	Unchanged          int                   `json:"unchanged"`
	LinksCreated       int                   `json:"links_created"`
	OrphansDeactivated int                   `json:"orphans_deactivated"`
	ErrorCount         int                   `json:"error_count"`
	Errors             []domainsync.RunError `json:"errors,omitempty"`
	Transitions        []StockTransition     `json:"stock_transitions,omitempty"`
	StartedAt          time.Time             `json:"started_at"`
	FinishedAt         *time.Time            `json:"finished_at"`
	DurationMS         int64                 `json:"duration_ms"`
}

// ToRunResponse converts a run log entry to a response DTO
func ToRunResponse(run *domainsync.Run, transitions []StockTransition) *RunResponse {
	var runErrors []domainsync.RunError
	if run.ErrorsJSON != "" {
		_ = json.Unmarshal([]byte(run.ErrorsJSON), &runErrors)
	}

	return &RunResponse{
		ID:                 run.ID,
		Trigger:            string(run.Trigger),
		Status:             string(run.Status),
		DryRun:             run.DryRun,
		PagesFetched:       run.PagesFetched,
		Created:            run.Created,
		Updated:            run.Updated,
		Unchanged:          run.Unchanged,
		LinksCreated:       run.LinksCreated,
		OrphansDeactivated: run.OrphansDeactivated,
		ErrorCount:         run.ErrorCount,
		Errors:             runErrors,
		Transitions:        transitions,
		StartedAt:          run.StartedAt,
		FinishedAt:         run.FinishedAt,
		DurationMS:         run.DurationMS,
	}
}
