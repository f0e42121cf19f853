package models

import (
	"time"

	"github.com/google/uuid"
)

// Ingestion event types pushed to live subscribers.
const (
	EventRunStarted  = "ingestion.started"
	EventBatchDone   = "ingestion.batch"
	EventRunFinished = "ingestion.finished"
)

// IngestionEvent reports the progress of a run.
type IngestionEvent struct {
	Type      string    `json:"type"`
	RunID     uuid.UUID `json:"runId"`
	Trigger   string    `json:"trigger,omitempty"`
	Status    string    `json:"status,omitempty"`
	Batch     int       `json:"batch,omitempty"`
	BatchSize int       `json:"batchSize,omitempty"`
	Succeeded *bool     `json:"succeeded,omitempty"`
	Total     int       `json:"totalRecords,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}
