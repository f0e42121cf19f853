package service

import (
	"github.com/shopspring/decimal"

	"transporte/backend/services/transport-service/internal/models"
)

// Recognized variable labels of the ETUP dataset.
const (
	VariableIngresosPorPasaje      = "Ingresos por pasaje"
	VariableKilometrosRecorridos   = "Kilómetros recorridos"
	VariableLongitudServicio       = "Longitud de servicio"
	VariablePasajerosTransportados = "Pasajeros transportados"
	VariableUnidadesEnOperacion    = "Unidades en operación"
)

// Aggregate sums the values of the recognized variables. Null values count
// as zero; records with any other label contribute nothing.
func Aggregate(records []models.TransportRecord) models.Statistics {
	stats := models.Statistics{
		IngresosPorPasaje:      decimal.Zero,
		KilometrosRecorridos:   decimal.Zero,
		LongitudServicio:       decimal.Zero,
		PasajerosTransportados: decimal.Zero,
		UnidadesEnOperacion:    decimal.Zero,
	}

	for _, rec := range records {
		if rec.Variable == nil {
			continue
		}
		value := decimal.Zero
		if rec.Value.Valid {
			value = rec.Value.Decimal
		}

		switch *rec.Variable {
		case VariableIngresosPorPasaje:
			stats.IngresosPorPasaje = stats.IngresosPorPasaje.Add(value)
		case VariableKilometrosRecorridos:
			stats.KilometrosRecorridos = stats.KilometrosRecorridos.Add(value)
		case VariableLongitudServicio:
			stats.LongitudServicio = stats.LongitudServicio.Add(value)
		case VariablePasajerosTransportados:
			stats.PasajerosTransportados = stats.PasajerosTransportados.Add(value)
		case VariableUnidadesEnOperacion:
			stats.UnidadesEnOperacion = stats.UnidadesEnOperacion.Add(value)
		}
	}

	return stats
}
