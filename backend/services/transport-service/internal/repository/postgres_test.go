package repository

import (
	"context"
	"database/sql"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	libdb "transporte/backend/libs/db"
	"transporte/backend/services/transport-service/internal/db"
	"transporte/backend/services/transport-service/internal/filter"
	"transporte/backend/services/transport-service/internal/models"
)

// openTestDB connects to TEST_DB_DSN and creates the service tables in a
// throwaway schema that is dropped when the test ends.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_DB_DSN"))
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()

	admin, err := db.NewPostgres(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	schema := "transporte_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema: %v", err)
		}
		admin.Close()
	})

	conn, err := db.NewPostgres(withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("connect to schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.EnsureSchema(ctx, conn); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return conn
}

func withSearchPath(dsn, schema string) string {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + schema
}

func record(year int, transportType *string, value string) models.TransportRecord {
	return models.TransportRecord{
		Year:          &year,
		TransportType: transportType,
		Value:         decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true},
	}
}

func TestTransportRepositoryPostgres(t *testing.T) {
	sqlDB := openTestDB(t)
	repo := NewTransportRepository(sqlDB)
	ctx := context.Background()

	bus, taxi := "Bus", "Taxi"
	fixture := []models.TransportRecord{
		record(2020, &bus, "1.10"),
		record(2021, &bus, "2.20"),
		record(2021, nil, "3.30"),
		record(2022, &taxi, "4.40"),
	}
	if err := repo.BulkInsert(ctx, fixture); err != nil {
		t.Fatalf("bulk insert: %v", err)
	}

	types, err := repo.DistinctTransportTypes(ctx)
	if err != nil {
		t.Fatalf("distinct: %v", err)
	}
	if !reflect.DeepEqual(types, []string{"Bus", "Taxi"}) {
		t.Fatalf("unexpected types %v", types)
	}

	start, end := 2021, 2022
	matched, err := repo.Find(ctx, filter.Build(models.FilterRequest{YearStart: &start, YearEnd: &end}), 100)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matched) != 3 {
		t.Fatalf("expected 3 records in range, got %d", len(matched))
	}
	if *matched[0].Year != 2021 || !matched[0].Value.Decimal.Equal(decimal.RequireFromString("2.2")) {
		t.Fatalf("unexpected first match %+v", matched[0])
	}
	if matched[1].TransportType != nil || matched[0].ID >= matched[1].ID {
		t.Fatalf("expected insertion order with null type kept, got %+v", matched[:2])
	}

	limited, err := repo.Find(ctx, filter.Predicate{}, 2)
	if err != nil {
		t.Fatalf("find limited: %v", err)
	}
	if len(limited) != 2 || *limited[0].Year != 2020 {
		t.Fatalf("unexpected limited result %+v", limited)
	}
}

func TestBulkInsertRejectsUnparsedLiteral(t *testing.T) {
	sqlDB := openTestDB(t)
	repo := NewTransportRepository(sqlDB)

	rec := models.TransportRecord{Uncoerced: map[string]string{models.ColumnYear: "abc"}}
	err := repo.BulkInsert(context.Background(), []models.TransportRecord{rec})
	if err == nil {
		t.Fatalf("expected storage to reject the literal")
	}
	if code := libdb.SQLState(err); code != "22P02" {
		t.Fatalf("expected invalid_text_representation, got %q (%v)", code, err)
	}

	all, err := repo.Find(context.Background(), filter.Predicate{}, 0)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected batch must not store rows, got %d", len(all))
	}
}

func TestRunRepositoryPostgres(t *testing.T) {
	sqlDB := openTestDB(t)
	runs := NewRunRepository(sqlDB)
	ctx := context.Background()

	run := models.IngestionRun{
		ID:        uuid.New(),
		Trigger:   "manual",
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := runs.CreateRun(ctx, run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	finished := run.StartedAt.Add(time.Second)
	run.Status = models.RunStatusPartial
	run.FinishedAt = &finished
	run.TotalRecords = 120
	run.FailedBatches = 1
	if err := runs.FinishRun(ctx, run); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	recent, err := runs.ListRecent(ctx, 5)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 run, got %d", len(recent))
	}
	got := recent[0]
	if got.ID != run.ID || got.Status != models.RunStatusPartial || got.TotalRecords != 120 || got.FailedBatches != 1 {
		t.Fatalf("unexpected run %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) || got.ErrorMessage != nil {
		t.Fatalf("unexpected finish fields %+v", got)
	}
}
