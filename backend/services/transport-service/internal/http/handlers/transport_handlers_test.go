package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"transporte/backend/services/transport-service/internal/models"
)

type stubQueries struct {
	lastFilter models.FilterRequest
	err        error
}

func (s *stubQueries) ListRecords(context.Context) ([]models.TransportRecord, error) {
	return []models.TransportRecord{}, s.err
}

func (s *stubQueries) GetFilteredStatistics(_ context.Context, req models.FilterRequest) (models.FilteredStatistics, error) {
	s.lastFilter = req
	return models.FilteredStatistics{FilteredRecords: []models.TransportRecord{}}, s.err
}

func (s *stubQueries) ListDistinctTransportTypes(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []string{"Metro", "Macrobús"}, nil
}

func (s *stubQueries) ListRuns(context.Context) ([]models.IngestionRun, error) {
	return []models.IngestionRun{}, s.err
}

type stubIngestion struct {
	err error
}

func (s *stubIngestion) RunIngestion(context.Context, string) (models.IngestionResult, error) {
	if s.err != nil {
		return models.IngestionResult{}, s.err
	}
	return models.IngestionResult{Message: "Datos de transporte cargados exitosamente", TotalRecords: 120}, nil
}

func (s *stubIngestion) Probe(context.Context) (models.ProbeResult, error) {
	return models.ProbeResult{Message: "ok", ResponseType: "object"}, s.err
}

func TestStatisticsParsesDashboardParams(t *testing.T) {
	queries := &stubQueries{}
	h := NewTransportHandlers(queries, &stubIngestion{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/transporte/estadisticas?anioInicio=2020&anioFin=2022&mesInicio=1&transporte=Metro&estadistica=Pasajeros+transportados", nil)
	rec := httptest.NewRecorder()
	h.Statistics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	f := queries.lastFilter
	if f.YearStart == nil || *f.YearStart != 2020 || f.YearEnd == nil || *f.YearEnd != 2022 {
		t.Fatalf("unexpected years %+v", f)
	}
	if f.MonthStart == nil || *f.MonthStart != 1 || f.MonthEnd != nil {
		t.Fatalf("unexpected months %+v", f)
	}
	if f.TransportType == nil || *f.TransportType != "Metro" || f.Variable == nil || *f.Variable != "Pasajeros transportados" {
		t.Fatalf("unexpected text filters %+v", f)
	}
}

func TestStatisticsRejectsOutOfRangeParams(t *testing.T) {
	h := NewTransportHandlers(&stubQueries{}, &stubIngestion{}, nil)

	for _, query := range []string{"anioInicio=1999", "mesInicio=0", "anioFin=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/transporte/estadisticas?"+query, nil)
		rec := httptest.NewRecorder()
		h.Statistics(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestParseFilterTreatsEmptyAsAbsent(t *testing.T) {
	f, err := ParseFilter(url.Values{"anioInicio": {""}, "transporte": {""}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.YearStart != nil || f.TransportType != nil {
		t.Fatalf("expected empty filter, got %+v", f)
	}
}

func TestLoadReturnsResult(t *testing.T) {
	h := NewTransportHandlers(&stubQueries{}, &stubIngestion{}, nil)
	rec := httptest.NewRecorder()
	h.Load(rec, httptest.NewRequest(http.MethodGet, "/transporte/cargar", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body models.IngestionResult
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalRecords != 120 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestFailuresMapToGeneric500(t *testing.T) {
	boom := errors.New("pq: relation does not exist")
	h := NewTransportHandlers(&stubQueries{err: boom}, &stubIngestion{err: boom}, nil)

	cases := map[string]http.HandlerFunc{
		"/transporte":                  h.List,
		"/transporte/cargar":           h.Load,
		"/transporte/probar-api":       h.Probe,
		"/transporte/estadisticas":     h.Statistics,
		"/transporte/tipos-transporte": h.TransportTypes,
		"/transporte/ingestas":         h.Runs,
	}
	for path, handler := range cases {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "relation does not exist") {
			t.Fatalf("%s: internal error leaked: %s", path, rec.Body.String())
		}
	}
}

func TestTransportTypes(t *testing.T) {
	h := NewTransportHandlers(&stubQueries{}, &stubIngestion{}, nil)
	rec := httptest.NewRecorder()
	h.TransportTypes(rec, httptest.NewRequest(http.MethodGet, "/transporte/tipos-transporte", nil))

	var types []string
	if err := json.NewDecoder(rec.Body).Decode(&types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("unexpected types %v", types)
	}
}
