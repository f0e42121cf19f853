package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	libconfig "transporte/backend/libs/config"
	"transporte/backend/services/transport-service/internal/ingest"
	"transporte/backend/services/transport-service/internal/models"
)

// Query parameter names used by the dashboard.
const (
	paramYearStart     = "anioInicio"
	paramYearEnd       = "anioFin"
	paramMonthStart    = "mesInicio"
	paramMonthEnd      = "mesFin"
	paramTransportType = "transporte"
	paramStatistic     = "estadistica"
)

// TransportQueries is the read side served over HTTP.
type TransportQueries interface {
	ListRecords(ctx context.Context) ([]models.TransportRecord, error)
	GetFilteredStatistics(ctx context.Context, req models.FilterRequest) (models.FilteredStatistics, error)
	ListDistinctTransportTypes(ctx context.Context) ([]string, error)
	ListRuns(ctx context.Context) ([]models.IngestionRun, error)
}

// Ingestion triggers runs and probes the external API.
type Ingestion interface {
	RunIngestion(ctx context.Context, trigger string) (models.IngestionResult, error)
	Probe(ctx context.Context) (models.ProbeResult, error)
}

// TransportHandlers serves the /transporte endpoints.
type TransportHandlers struct {
	queries   TransportQueries
	ingestion Ingestion
	logger    *zap.Logger
}

// NewTransportHandlers returns handler struct.
func NewTransportHandlers(queries TransportQueries, ingestion Ingestion, logger *zap.Logger) *TransportHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransportHandlers{queries: queries, ingestion: ingestion, logger: logger}
}

// List handles GET /transporte.
func (h *TransportHandlers) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.queries.ListRecords(r.Context())
	if err != nil {
		h.logger.Error("list records failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener los datos")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Load handles GET /transporte/cargar.
func (h *TransportHandlers) Load(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("ingestion requested", zap.String("remote_addr", r.RemoteAddr))
	result, err := h.ingestion.RunIngestion(r.Context(), ingest.TriggerManual)
	if err != nil {
		h.logger.Error("ingestion failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al procesar la solicitud")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Probe handles GET /transporte/probar-api.
func (h *TransportHandlers) Probe(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingestion.Probe(r.Context())
	if err != nil {
		h.logger.Error("probe failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al probar conexión con API")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Statistics handles GET /transporte/estadisticas.
func (h *TransportHandlers) Statistics(w http.ResponseWriter, r *http.Request) {
	req, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.queries.GetFilteredStatistics(r.Context(), req)
	if err != nil {
		h.logger.Error("statistics query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener estadísticas")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// TransportTypes handles GET /transporte/tipos-transporte.
func (h *TransportHandlers) TransportTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.queries.ListDistinctTransportTypes(r.Context())
	if err != nil {
		h.logger.Error("transport types query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener tipos de transporte")
		return
	}
	writeJSON(w, http.StatusOK, types)
}

// Runs handles GET /transporte/ingestas.
func (h *TransportHandlers) Runs(w http.ResponseWriter, r *http.Request) {
	runs, err := h.queries.ListRuns(r.Context())
	if err != nil {
		h.logger.Error("ingestion runs query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener las ingestas")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// ParseFilter reads the dashboard query parameters. Empty values are
// treated as absent; bounds are checked with the struct validator.
func ParseFilter(q url.Values) (models.FilterRequest, error) {
	var (
		req models.FilterRequest
		err error
	)
	if req.YearStart, err = intParam(q, paramYearStart); err != nil {
		return req, err
	}
	if req.YearEnd, err = intParam(q, paramYearEnd); err != nil {
		return req, err
	}
	if req.MonthStart, err = intParam(q, paramMonthStart); err != nil {
		return req, err
	}
	if req.MonthEnd, err = intParam(q, paramMonthEnd); err != nil {
		return req, err
	}
	req.TransportType = textParam(q, paramTransportType)
	req.Variable = textParam(q, paramStatistic)

	if err := libconfig.Validator().Struct(req); err != nil {
		return req, describeValidation(err)
	}
	return req, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &v, nil
}

func textParam(q url.Values, name string) *string {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	return &v
}

var paramByField = map[string]string{
	"YearStart":  paramYearStart,
	"YearEnd":    paramYearEnd,
	"MonthStart": paramMonthStart,
	"MonthEnd":   paramMonthEnd,
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := paramByField[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		messages = append(messages, name+" must not be less than "+fe.Param())
	}
	return errors.New(strings.Join(messages, "; "))
}
