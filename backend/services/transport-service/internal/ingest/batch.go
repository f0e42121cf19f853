package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	libdb "transporte/backend/libs/db"
	"transporte/backend/services/transport-service/internal/models"
)

// DefaultBatchSize bounds the rows sent in one storage round-trip.
const DefaultBatchSize = 50

// BulkInserter writes one batch of records in a single round-trip.
type BulkInserter interface {
	BulkInsert(ctx context.Context, records []models.TransportRecord) error
}

// BatchObserver is notified after every batch attempt.
type BatchObserver interface {
	BatchDone(outcome BatchOutcome)
}

// BatchOutcome is the result of one batch attempt. Index is 1-based.
type BatchOutcome struct {
	Index    int
	Size     int
	Duration time.Duration
	Err      *BatchWriteError
}

// Succeeded reports whether the batch was committed.
func (o BatchOutcome) Succeeded() bool { return o.Err == nil }

// BatchReport summarizes an attempt-all batch run.
type BatchReport struct {
	Attempted int
	Outcomes  []BatchOutcome
}

// Failed returns the outcomes of the batches that could not be written.
func (r BatchReport) Failed() []BatchOutcome {
	var failed []BatchOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// BatchPersister writes records in fixed-size batches. A failing batch is
// recorded and the remaining batches are still attempted.
type BatchPersister struct {
	store     BulkInserter
	batchSize int
	observer  BatchObserver
	logger    *zap.Logger
}

// NewBatchPersister builds a persister. A non-positive size falls back to DefaultBatchSize.
func NewBatchPersister(store BulkInserter, batchSize int, observer BatchObserver, logger *zap.Logger) *BatchPersister {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchPersister{
		store:     store,
		batchSize: batchSize,
		observer:  observer,
		logger:    logger,
	}
}

// Persist attempts every batch once, in order.
func (p *BatchPersister) Persist(ctx context.Context, records []models.TransportRecord) BatchReport {
	report := BatchReport{Attempted: len(records)}

	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		outcome := BatchOutcome{Index: start/p.batchSize + 1, Size: len(batch)}

		began := time.Now()
		err := p.store.BulkInsert(ctx, batch)
		outcome.Duration = time.Since(began)

		if err != nil {
			outcome.Err = &BatchWriteError{Index: outcome.Index, Size: outcome.Size, Err: err}
			p.logger.Error("failed to save batch",
				zap.Int("batch_index", outcome.Index),
				zap.Int("batch_size", outcome.Size),
				zap.String("sqlstate", libdb.SQLState(err)),
				zap.Error(err),
			)
		} else {
			p.logger.Info("batch saved",
				zap.Int("batch_index", outcome.Index),
				zap.Int("batch_size", outcome.Size),
				zap.Duration("duration", outcome.Duration),
			)
		}

		report.Outcomes = append(report.Outcomes, outcome)
		if p.observer != nil {
			p.observer.BatchDone(outcome)
		}
	}

	return report
}
