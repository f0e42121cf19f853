package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"transporte/backend/services/transport-service/internal/filter"
	"transporte/backend/services/transport-service/internal/metrics"
	"transporte/backend/services/transport-service/internal/models"
)

// Listing limits.
const (
	ListLimit = 100
	RunsLimit = 20
)

// Cache keys.
const (
	cacheKeyTypes = "types"
	cacheKeyStats = "stats"
)

// QueryError wraps a storage read failure.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// RecordStore is the read side of the transporte table.
type RecordStore interface {
	Find(ctx context.Context, pred filter.Predicate, limit int) ([]models.TransportRecord, error)
	DistinctTransportTypes(ctx context.Context) ([]string, error)
}

// RunLister reads the ingestion audit log.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.IngestionRun, error)
}

// Cache stores derived query results per generation. Invalidation starts a
// new generation, so results computed from older reads are never served.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	GetJSON(ctx context.Context, gen int64, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, gen int64, key string, value any) error
}

// TransportService answers record, statistics and type queries.
type TransportService struct {
	store  RecordStore
	runs   RunLister
	cache  Cache
	logger *zap.Logger
}

// NewTransportService builds service. runs and cache may be nil.
func NewTransportService(store RecordStore, runs RunLister, cache Cache, logger *zap.Logger) *TransportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransportService{
		store:  store,
		runs:   runs,
		cache:  cache,
		logger: logger.With(zap.String("component", "transport_service")),
	}
}

// ListRecords returns up to ListLimit stored records.
func (s *TransportService) ListRecords(ctx context.Context) ([]models.TransportRecord, error) {
	defer observe("list_records", time.Now())

	records, err := s.store.Find(ctx, filter.Predicate{}, ListLimit)
	if err != nil {
		s.logger.Error("failed to list records", zap.Error(err))
		return nil, &QueryError{Op: "list records", Err: err}
	}
	return records, nil
}

// GetFilteredStatistics aggregates the records matching the filter. Results
// of an unconstrained filter span the whole table and are not cached.
func (s *TransportService) GetFilteredStatistics(ctx context.Context, req models.FilterRequest) (models.FilteredStatistics, error) {
	defer observe("filtered_statistics", time.Now())

	pred := filter.Build(req)
	key := statsCacheKey(pred)

	gen, cacheable := s.generation(ctx)
	cacheable = cacheable && !pred.Empty()

	var cached models.FilteredStatistics
	if cacheable && s.lookup(ctx, gen, key, &cached) {
		return cached, nil
	}

	records, err := s.store.Find(ctx, pred, 0)
	if err != nil {
		s.logger.Error("failed to filter records", zap.Error(err))
		return models.FilteredStatistics{}, &QueryError{Op: "filter records", Err: err}
	}

	result := models.FilteredStatistics{
		Statistics:      Aggregate(records),
		FilteredRecords: records,
	}
	if cacheable {
		s.remember(ctx, gen, key, result)
	}
	return result, nil
}

// ListDistinctTransportTypes returns each non-null transport type once.
func (s *TransportService) ListDistinctTransportTypes(ctx context.Context) ([]string, error) {
	defer observe("distinct_types", time.Now())

	gen, cacheable := s.generation(ctx)

	var cached []string
	if cacheable && s.lookup(ctx, gen, cacheKeyTypes, &cached) {
		return cached, nil
	}

	types, err := s.store.DistinctTransportTypes(ctx)
	if err != nil {
		s.logger.Error("failed to list transport types", zap.Error(err))
		return nil, &QueryError{Op: "list transport types", Err: err}
	}
	if cacheable {
		s.remember(ctx, gen, cacheKeyTypes, types)
	}
	return types, nil
}

// ListRuns returns the latest ingestion runs.
func (s *TransportService) ListRuns(ctx context.Context) ([]models.IngestionRun, error) {
	if s.runs == nil {
		return []models.IngestionRun{}, nil
	}
	runs, err := s.runs.ListRecent(ctx, RunsLimit)
	if err != nil {
		s.logger.Error("failed to list ingestion runs", zap.Error(err))
		return nil, &QueryError{Op: "list ingestion runs", Err: err}
	}
	return runs, nil
}

// generation reports the cache generation to read and write under, or false
// when caching is off for this call.
func (s *TransportService) generation(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("cache generation lookup failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *TransportService) lookup(ctx context.Context, gen int64, key string, dest any) bool {
	found, err := s.cache.GetJSON(ctx, gen, key, dest)
	if err != nil {
		s.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *TransportService) remember(ctx context.Context, gen int64, key string, value any) {
	if err := s.cache.SetJSON(ctx, gen, key, value); err != nil {
		s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
}

// statsCacheKey renders a stable key for the predicate.
func statsCacheKey(pred filter.Predicate) string {
	if pred.Empty() {
		return cacheKeyStats + ":all"
	}
	parts := make([]string, 0, len(pred.Conditions))
	for _, c := range pred.Conditions {
		switch {
		case c.Op == filter.OpBetween:
			parts = append(parts, fmt.Sprintf("%s=%d..%d", c.Field, c.Int, c.High))
		case c.Field == filter.FieldTransportType || c.Field == filter.FieldVariable:
			parts = append(parts, string(c.Field)+"="+strconv.Quote(c.Text))
		default:
			parts = append(parts, fmt.Sprintf("%s=%d", c.Field, c.Int))
		}
	}
	return cacheKeyStats + ":" + strings.Join(parts, "&")
}

func observe(op string, began time.Time) {
	metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(began).Seconds())
}
