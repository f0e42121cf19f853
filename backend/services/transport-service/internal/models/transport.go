package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransportRecord is one normalized ETUP observation as stored in the transporte table.
// Every field except ID and LoadedAt may be null.
type TransportRecord struct {
	ID                   int64               `db:"id" json:"id"`
	ExternalID           *string             `db:"external_id" json:"externalId"`
	Year                 *int                `db:"year" json:"year"`
	MonthID              *int                `db:"month_id" json:"monthId"`
	TransportType        *string             `db:"transport_type" json:"transportType"`
	Variable             *string             `db:"variable" json:"variable"`
	EntityUniqueID       *string             `db:"entity_unique_id" json:"entityUniqueId"`
	EntityID             *int                `db:"entity_id" json:"entityId"`
	EntityName           *string             `db:"entity_name" json:"entityName"`
	MunicipalityUniqueID *string             `db:"municipality_unique_id" json:"municipalityUniqueId"`
	MunicipalityID       *int                `db:"municipality_id" json:"municipalityId"`
	MunicipalityName     *string             `db:"municipality_name" json:"municipalityName"`
	Value                decimal.NullDecimal `db:"value" json:"value"`
	Status               *string             `db:"status" json:"status"`
	LoadedAt             time.Time           `db:"loaded_at" json:"loadedAt"`

	// Uncoerced holds source literals of numeric columns that did not parse,
	// keyed by column name. Storage receives the literal in place of the typed value.
	Uncoerced map[string]string `db:"-" json:"-"`
}

// Numeric columns of the transporte table.
const (
	ColumnYear           = "year"
	ColumnMonthID        = "month_id"
	ColumnEntityID       = "entity_id"
	ColumnMunicipalityID = "municipality_id"
	ColumnValue          = "value"
)

// FilterRequest selects stored records for statistics. Absent fields impose no constraint.
type FilterRequest struct {
	YearStart     *int    `json:"yearStart,omitempty" validate:"omitempty,min=2000"`
	YearEnd       *int    `json:"yearEnd,omitempty" validate:"omitempty,min=2000"`
	MonthStart    *int    `json:"monthStart,omitempty" validate:"omitempty,min=1"`
	MonthEnd      *int    `json:"monthEnd,omitempty" validate:"omitempty,min=1"`
	TransportType *string `json:"transportType,omitempty"`
	Variable      *string `json:"statistic,omitempty"`
}

// Statistics holds the running totals of the recognized variables.
type Statistics struct {
	IngresosPorPasaje      decimal.Decimal `json:"ingresosPorPasaje"`
	KilometrosRecorridos   decimal.Decimal `json:"kilometrosRecorridos"`
	LongitudServicio       decimal.Decimal `json:"longitudServicio"`
	PasajerosTransportados decimal.Decimal `json:"pasajerosTransportados"`
	UnidadesEnOperacion    decimal.Decimal `json:"unidadesEnOperacion"`
}

// FilteredStatistics is the result of a statistics query.
type FilteredStatistics struct {
	Statistics      Statistics        `json:"statistics"`
	FilteredRecords []TransportRecord `json:"filteredRecords"`
}

// IngestionResult is reported to the caller of an ingestion run.
type IngestionResult struct {
	Message      string `json:"message"`
	TotalRecords int    `json:"totalRecords"`
}

// ProbeResult describes the raw shape of the external API response.
type ProbeResult struct {
	Message      string      `json:"message"`
	ResponseType string      `json:"responseType"`
	IsArray      bool        `json:"isArray"`
	SampleSize   *int        `json:"sampleSize"`
	Sample       interface{} `json:"sample"`
}
