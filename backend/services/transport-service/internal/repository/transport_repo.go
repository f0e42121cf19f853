package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"transporte/backend/services/transport-service/internal/filter"
	"transporte/backend/services/transport-service/internal/models"
)

const recordColumns = `external_id, year, month_id, transport_type, variable,
	entity_unique_id, entity_id, entity_name,
	municipality_unique_id, municipality_id, municipality_name,
	value, status`

const recordColumnCount = 13

// TransportRepository persists transport records.
type TransportRepository struct {
	db *sql.DB
}

// NewTransportRepository returns repository.
func NewTransportRepository(db *sql.DB) *TransportRepository {
	return &TransportRepository{db: db}
}

// BulkInsert writes one batch with a single multi-row INSERT.
func (r *TransportRepository) BulkInsert(ctx context.Context, records []models.TransportRecord) error {
	if len(records) == 0 {
		return nil
	}
	query, args := bulkInsertQuery(records)
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func bulkInsertQuery(records []models.TransportRecord) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO transporte (")
	b.WriteString(recordColumns)
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(records)*recordColumnCount)
	for i, rec := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for col := 0; col < recordColumnCount; col++ {
			if col > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*recordColumnCount+col+1)
		}
		b.WriteByte(')')

		args = append(args,
			rec.ExternalID,
			bindNumeric(rec, models.ColumnYear, rec.Year),
			bindNumeric(rec, models.ColumnMonthID, rec.MonthID),
			rec.TransportType,
			rec.Variable,
			rec.EntityUniqueID,
			bindNumeric(rec, models.ColumnEntityID, rec.EntityID),
			rec.EntityName,
			rec.MunicipalityUniqueID,
			bindNumeric(rec, models.ColumnMunicipalityID, rec.MunicipalityID),
			rec.MunicipalityName,
			bindNumeric(rec, models.ColumnValue, rec.Value),
			rec.Status,
		)
	}
	return b.String(), args
}

// bindNumeric sends an unparsed source literal as text so Postgres coerces or rejects it.
func bindNumeric(rec models.TransportRecord, column string, typed any) any {
	if literal, ok := rec.Uncoerced[column]; ok {
		return literal
	}
	return typed
}

// Find returns records matching the predicate in insertion order. A
// non-positive limit returns every match.
func (r *TransportRepository) Find(ctx context.Context, pred filter.Predicate, limit int) ([]models.TransportRecord, error) {
	query := "SELECT id, " + recordColumns + ", loaded_at FROM transporte"
	where, args := pred.Where(1)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.TransportRecord, 0)
	for rows.Next() {
		var rec models.TransportRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ExternalID,
			&rec.Year,
			&rec.MonthID,
			&rec.TransportType,
			&rec.Variable,
			&rec.EntityUniqueID,
			&rec.EntityID,
			&rec.EntityName,
			&rec.MunicipalityUniqueID,
			&rec.MunicipalityID,
			&rec.MunicipalityName,
			&rec.Value,
			&rec.Status,
			&rec.LoadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// DistinctTransportTypes returns every non-null transport type once.
func (r *TransportRepository) DistinctTransportTypes(ctx context.Context) ([]string, error) {
	const query = `
		SELECT DISTINCT transport_type
		FROM transporte
		WHERE transport_type IS NOT NULL
		ORDER BY transport_type
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
