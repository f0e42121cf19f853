package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"transporte/backend/services/transport-service/internal/models"
)

func strPtr(v string) *string { return &v }

func rec(variable string, value string) models.TransportRecord {
	r := models.TransportRecord{Variable: strPtr(variable)}
	if value != "" {
		r.Value = decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true}
	}
	return r
}

func TestAggregateSumsRecognizedLabels(t *testing.T) {
	stats := Aggregate([]models.TransportRecord{
		rec(VariablePasajerosTransportados, "100"),
		rec(VariablePasajerosTransportados, "250.50"),
		rec(VariableKilometrosRecorridos, "12.25"),
		rec(VariableUnidadesEnOperacion, "7"),
	})

	if !stats.PasajerosTransportados.Equal(decimal.RequireFromString("350.5")) {
		t.Fatalf("passengers: %s", stats.PasajerosTransportados)
	}
	if !stats.KilometrosRecorridos.Equal(decimal.RequireFromString("12.25")) {
		t.Fatalf("kilometers: %s", stats.KilometrosRecorridos)
	}
	if !stats.UnidadesEnOperacion.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("units: %s", stats.UnidadesEnOperacion)
	}
	if !stats.IngresosPorPasaje.IsZero() || !stats.LongitudServicio.IsZero() {
		t.Fatalf("untouched totals must be zero: %+v", stats)
	}
}

func TestAggregateNullValueCountsAsZero(t *testing.T) {
	stats := Aggregate([]models.TransportRecord{
		rec(VariableLongitudServicio, ""),
		rec(VariableLongitudServicio, "3.5"),
	})
	if !stats.LongitudServicio.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("length: %s", stats.LongitudServicio)
	}
}

func TestAggregateIgnoresUnknownLabels(t *testing.T) {
	records := []models.TransportRecord{
		rec("Otra variable", "999"),
		{Value: decimal.NullDecimal{Decimal: decimal.NewFromInt(5), Valid: true}},
		rec("pasajeros transportados", "1"),
	}
	stats := Aggregate(records)
	for _, total := range []decimal.Decimal{
		stats.IngresosPorPasaje, stats.KilometrosRecorridos, stats.LongitudServicio,
		stats.PasajerosTransportados, stats.UnidadesEnOperacion,
	} {
		if !total.IsZero() {
			t.Fatalf("expected zero totals, got %+v", stats)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	if !stats.IngresosPorPasaje.IsZero() {
		t.Fatalf("expected zero totals")
	}
}
