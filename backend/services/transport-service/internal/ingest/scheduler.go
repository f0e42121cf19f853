package ingest

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"transporte/backend/services/transport-service/internal/models"
)

// Runner is the part of Ingestor the scheduler drives.
type Runner interface {
	RunIngestion(ctx context.Context, trigger string) (models.IngestionResult, error)
}

// Scheduler triggers ingestion runs periodically. Overlapping scheduled
// runs are skipped.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runOnStart bool
	logger     *zap.Logger
}

// NewScheduler builds a scheduler. A non-positive interval disables periodic runs.
func NewScheduler(runner Runner, interval time.Duration, runOnStart bool, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger.With(zap.String("component", "scheduler")),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.runOnStart {
		s.execute(ctx, TriggerStartup)
	}
	if s.interval <= 0 {
		s.logger.Info("periodic ingestion disabled")
		return nil
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	s.logger.Info("starting ingestion scheduler", zap.Duration("interval", s.interval))
	_, err := scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.execute(ctx, TriggerScheduled)
	})
	if err != nil {
		return err
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()

	s.logger.Info("ingestion scheduler stopped")
	return nil
}

func (s *Scheduler) execute(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	result, err := s.runner.RunIngestion(ctx, trigger)
	if err != nil {
		s.logger.Error("scheduled ingestion failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	s.logger.Info("scheduled ingestion completed",
		zap.String("trigger", trigger),
		zap.Int("total_records", result.TotalRecords),
	)
}
