package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transporte/backend/services/transport-service/internal/metrics"
	"transporte/backend/services/transport-service/internal/models"
)

// SuccessMessage is reported once every batch has been attempted.
const SuccessMessage = "Datos de transporte cargados exitosamente"

// Run triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerStartup   = "startup"
)

// Fetcher retrieves the raw ETUP response.
type Fetcher interface {
	Fetch(ctx context.Context) (json.RawMessage, error)
}

// RunStore records the ingestion audit log.
type RunStore interface {
	CreateRun(ctx context.Context, run models.IngestionRun) error
	FinishRun(ctx context.Context, run models.IngestionRun) error
}

// Notifier receives progress events.
type Notifier interface {
	Publish(event models.IngestionEvent)
}

// Invalidator drops derived data once new rows are written.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Ingestor runs fetch, normalize, map and batch persist.
type Ingestor struct {
	fetcher   Fetcher
	store     BulkInserter
	runs      RunStore
	notifier  Notifier
	cache     Invalidator
	batchSize int
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures optional collaborators of an Ingestor.
type Option func(*Ingestor)

// WithRunStore enables the ingestion audit log.
func WithRunStore(runs RunStore) Option {
	return func(i *Ingestor) { i.runs = runs }
}

// WithNotifier publishes progress events.
func WithNotifier(n Notifier) Option {
	return func(i *Ingestor) { i.notifier = n }
}

// WithInvalidator clears cached query results after a run wrote data.
func WithInvalidator(c Invalidator) Option {
	return func(i *Ingestor) { i.cache = c }
}

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(i *Ingestor) { i.batchSize = size }
}

// NewIngestor wires the ingestion pipeline.
func NewIngestor(fetcher Fetcher, store BulkInserter, logger *zap.Logger, opts ...Option) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Ingestor{
		fetcher:   fetcher,
		store:     store,
		batchSize: DefaultBatchSize,
		logger:    logger.With(zap.String("component", "ingestor")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// RunIngestion performs one ingestion run. Fetch and normalization failures
// abort the run before anything is written; batch failures are logged and
// do not fail the run. TotalRecords counts records attempted.
func (i *Ingestor) RunIngestion(ctx context.Context, trigger string) (models.IngestionResult, error) {
	run := models.IngestionRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    models.RunStatusRunning,
		StartedAt: i.now().UTC(),
	}
	logger := i.logger.With(zap.String("run_id", run.ID.String()), zap.String("trigger", trigger))
	logger.Info("starting ingestion run")

	if i.runs != nil {
		if err := i.runs.CreateRun(ctx, run); err != nil {
			logger.Warn("failed to record ingestion run", zap.Error(err))
		}
	}
	i.publish(models.IngestionEvent{Type: models.EventRunStarted, RunID: run.ID, Trigger: trigger})

	records, err := i.collect(ctx, logger)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		logger.Error("ingestion run aborted", zap.Error(err))
		i.finish(ctx, logger, run, models.RunStatusFailed, 0, 0, err)
		return models.IngestionResult{}, err
	}

	persister := NewBatchPersister(i.store, i.batchSize, &runObserver{ingestor: i, runID: run.ID}, logger)
	report := persister.Persist(ctx, records)
	metrics.IngestionRecordsAttempted.Add(float64(report.Attempted))

	failed := len(report.Failed())
	status := models.RunStatusSucceeded
	switch {
	case failed > 0 && failed == len(report.Outcomes):
		status = models.RunStatusFailed
	case failed > 0:
		status = models.RunStatusPartial
	}

	if i.cache != nil && failed < len(report.Outcomes) {
		if err := i.cache.Invalidate(ctx); err != nil {
			logger.Warn("failed to invalidate cache", zap.Error(err))
		}
	}

	i.finish(ctx, logger, run, status, report.Attempted, failed, nil)
	logger.Info("ingestion run finished",
		zap.String("status", status),
		zap.Int("total_records", report.Attempted),
		zap.Int("batches", len(report.Outcomes)),
		zap.Int("failed_batches", failed),
	)

	return models.IngestionResult{
		Message:      SuccessMessage,
		TotalRecords: report.Attempted,
	}, nil
}

func (i *Ingestor) collect(ctx context.Context, logger *zap.Logger) ([]models.TransportRecord, error) {
	raw, err := i.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := DecodePayload(raw)
	if err != nil {
		return nil, &NormalizationError{Kind: KindOther, Reason: "response is not valid json", Err: err}
	}
	items, err := Normalize(payload)
	if err != nil {
		return nil, err
	}
	logger.Info("external data normalized", zap.String("shape", payload.Kind.String()), zap.Int("items", len(items)))

	records := MapRecords(items)
	if n := countUncoerced(records); n > 0 {
		logger.Warn("records carry unparsed numeric values, storage decides on them", zap.Int("records", n))
	}
	return records, nil
}

func countUncoerced(records []models.TransportRecord) int {
	n := 0
	for _, rec := range records {
		if len(rec.Uncoerced) > 0 {
			n++
		}
	}
	return n
}

func (i *Ingestor) finish(ctx context.Context, logger *zap.Logger, run models.IngestionRun, status string, total, failed int, cause error) {
	finished := i.now().UTC()
	run.Status = status
	run.FinishedAt = &finished
	run.TotalRecords = total
	run.FailedBatches = failed
	if cause != nil {
		msg := cause.Error()
		run.ErrorMessage = &msg
	}

	metrics.IngestionRuns.WithLabelValues(run.Trigger, status).Inc()

	if i.runs != nil {
		// the audit row is written even when the caller's context is gone
		if err := i.runs.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("failed to update ingestion run", zap.Error(err))
		}
	}

	event := models.IngestionEvent{
		Type:    models.EventRunFinished,
		RunID:   run.ID,
		Trigger: run.Trigger,
		Status:  status,
		Total:   total,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	i.publish(event)
}

func (i *Ingestor) publish(event models.IngestionEvent) {
	if i.notifier == nil {
		return
	}
	if event.At.IsZero() {
		event.At = i.now().UTC()
	}
	i.notifier.Publish(event)
}

type runObserver struct {
	ingestor *Ingestor
	runID    uuid.UUID
}

func (o *runObserver) BatchDone(outcome BatchOutcome) {
	result := "success"
	if !outcome.Succeeded() {
		result = "failure"
	}
	metrics.IngestionBatches.WithLabelValues(result).Inc()
	metrics.BatchDuration.Observe(outcome.Duration.Seconds())

	ok := outcome.Succeeded()
	event := models.IngestionEvent{
		Type:      models.EventBatchDone,
		RunID:     o.runID,
		Batch:     outcome.Index,
		BatchSize: outcome.Size,
		Succeeded: &ok,
	}
	if outcome.Err != nil {
		event.Error = outcome.Err.Error()
	}
	o.ingestor.publish(event)
}
