package repository

import (
	"context"
	"database/sql"

	"transporte/backend/services/transport-service/internal/models"
)

// RunRepository stores the ingestion audit log.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository ctor.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun inserts a run in its initial state.
func (r *RunRepository) CreateRun(ctx context.Context, run models.IngestionRun) error {
	const query = `
		INSERT INTO ingestion_runs (id, trigger, status, started_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, run.ID, run.Trigger, run.Status, run.StartedAt)
	return err
}

// FinishRun stores the final state of a run.
func (r *RunRepository) FinishRun(ctx context.Context, run models.IngestionRun) error {
	const query = `
		UPDATE ingestion_runs
		SET status = $2, finished_at = $3, total_records = $4, failed_batches = $5, error_message = $6
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Status,
		run.FinishedAt,
		run.TotalRecords,
		run.FailedBatches,
		run.ErrorMessage,
	)
	return err
}

// ListRecent returns the latest runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	const query = `
		SELECT id, trigger, status, started_at, finished_at, total_records, failed_batches, error_message
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.IngestionRun, 0, limit)
	for rows.Next() {
		var run models.IngestionRun
		if err := rows.Scan(
			&run.ID,
			&run.Trigger,
			&run.Status,
			&run.StartedAt,
			&run.FinishedAt,
			&run.TotalRecords,
			&run.FailedBatches,
			&run.ErrorMessage,
		); err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, rows.Err()
}
