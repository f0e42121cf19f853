package models

import (
	"time"

	"github.com/google/uuid"
)

// Ingestion run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// IngestionRun is the audit entry of one ingestion attempt.
type IngestionRun struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Trigger       string     `db:"trigger" json:"trigger"`
	Status        string     `db:"status" json:"status"`
	StartedAt     time.Time  `db:"started_at" json:"startedAt"`
	FinishedAt    *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
	TotalRecords  int        `db:"total_records" json:"totalRecords"`
	FailedBatches int        `db:"failed_batches" json:"failedBatches"`
	ErrorMessage  *string    `db:"error_message" json:"errorMessage,omitempty"`
}
