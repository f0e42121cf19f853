package ingest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"transporte/backend/services/transport-service/internal/models"
)

// Source keys of the ETUP API.
const (
	keyExternalID           = "_id"
	keyYear                 = "Anio"
	keyMonthID              = "ID_mes"
	keyTransportType        = "Transporte"
	keyVariable             = "Variable"
	keyEntityUniqueID       = "ID_entidad_unico"
	keyEntityID             = "ID_entidad"
	keyEntityName           = "Entidad"
	keyMunicipalityUniqueID = "ID_municipio_unico"
	keyMunicipalityID       = "ID_Municipio"
	keyMunicipalityName     = "Municipio"
	keyValue                = "Valor"
	keyStatus               = "Estatus"
)

// RawRecord is one item of the API array, keyed by source field name.
type RawRecord map[string]json.RawMessage

// MapRecord converts one raw API item into a TransportRecord. Missing fields
// become null; the function never fails. Numeric fields that are present but
// do not parse keep their source literal in Uncoerced so storage decides on
// them. Items that are not JSON objects produce an all-null record.
func MapRecord(item json.RawMessage) models.TransportRecord {
	var raw RawRecord
	if err := json.Unmarshal(item, &raw); err != nil {
		raw = RawRecord{}
	}

	m := recordMapper{raw: raw}
	rec := models.TransportRecord{
		ExternalID:           raw.text(keyExternalID),
		Year:                 m.integer(keyYear, models.ColumnYear),
		MonthID:              m.integer(keyMonthID, models.ColumnMonthID),
		TransportType:        raw.text(keyTransportType),
		Variable:             raw.text(keyVariable),
		EntityUniqueID:       raw.text(keyEntityUniqueID),
		EntityID:             m.integer(keyEntityID, models.ColumnEntityID),
		EntityName:           raw.text(keyEntityName),
		MunicipalityUniqueID: raw.text(keyMunicipalityUniqueID),
		MunicipalityID:       m.integer(keyMunicipalityID, models.ColumnMunicipalityID),
		MunicipalityName:     raw.text(keyMunicipalityName),
		Value:                m.decimal(keyValue, models.ColumnValue),
		Status:               raw.text(keyStatus),
	}
	rec.Uncoerced = m.uncoerced
	return rec
}

// MapRecords maps every item of an API array.
func MapRecords(items []json.RawMessage) []models.TransportRecord {
	records := make([]models.TransportRecord, 0, len(items))
	for _, item := range items {
		records = append(records, MapRecord(item))
	}
	return records
}

func (r RawRecord) present(key string) (json.RawMessage, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil, false
	}
	return v, true
}

// text treats empty strings and false as null. Numbers keep their literal form.
func (r RawRecord) text(key string) *string {
	v, ok := r.present(key)
	if !ok {
		return nil
	}
	var s string
	switch v[0] {
	case '"':
		if err := json.Unmarshal(v, &s); err != nil {
			return nil
		}
	case 'f':
		return nil
	default:
		s = string(v)
	}
	if s == "" {
		return nil
	}
	return &s
}

// Float bounds of the int range. The upper bound itself does not fit.
const (
	minIntFloat = float64(math.MinInt)
	maxIntFloat = -float64(math.MinInt)
)

type recordMapper struct {
	raw       RawRecord
	uncoerced map[string]string
}

func (m *recordMapper) keep(column, literal string) {
	if m.uncoerced == nil {
		m.uncoerced = make(map[string]string)
	}
	m.uncoerced[column] = literal
}

// integer keeps an explicit zero. Integral floats and numeric strings are accepted.
func (m *recordMapper) integer(key, column string) *int {
	v, ok := m.raw.present(key)
	if !ok {
		return nil
	}
	literal := unquote(v)
	if n, err := strconv.Atoi(literal); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || f != math.Trunc(f) || f < minIntFloat || f >= maxIntFloat {
		m.keep(column, literal)
		return nil
	}
	n := int(f)
	return &n
}

func (m *recordMapper) decimal(key, column string) decimal.NullDecimal {
	v, ok := m.raw.present(key)
	if !ok {
		return decimal.NullDecimal{}
	}
	literal := unquote(v)
	d, err := decimal.NewFromString(literal)
	if err != nil {
		m.keep(column, literal)
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// unquote returns the trimmed content of a JSON string, or the raw text of any other value.
func unquote(v json.RawMessage) string {
	if v[0] != '"' {
		return string(v)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return string(v)
	}
	return strings.TrimSpace(s)
}
