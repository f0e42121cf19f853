package ingest

import (
	"encoding/json"
	"testing"

	"transporte/backend/services/transport-service/internal/models"
)

func TestMapRecordFullItem(t *testing.T) {
	item := json.RawMessage(`{
		"_id": "abc", "Anio": 2021, "ID_mes": 3, "Transporte": "Metro",
		"Variable": "Pasajeros transportados", "ID_entidad_unico": "14",
		"ID_entidad": 14, "Entidad": "Jalisco", "ID_municipio_unico": "14039",
		"ID_Municipio": 39, "Municipio": "Guadalajara", "Valor": 1234.5, "Estatus": "Cifras preliminares"
	}`)

	rec := MapRecord(item)

	if rec.ExternalID == nil || *rec.ExternalID != "abc" {
		t.Fatalf("external id: %v", rec.ExternalID)
	}
	if rec.Year == nil || *rec.Year != 2021 || rec.MonthID == nil || *rec.MonthID != 3 {
		t.Fatalf("year/month: %v %v", rec.Year, rec.MonthID)
	}
	if rec.MunicipalityID == nil || *rec.MunicipalityID != 39 {
		t.Fatalf("municipality id: %v", rec.MunicipalityID)
	}
	if !rec.Value.Valid || rec.Value.Decimal.String() != "1234.5" {
		t.Fatalf("value: %+v", rec.Value)
	}
	if rec.Status == nil || *rec.Status != "Cifras preliminares" {
		t.Fatalf("status: %v", rec.Status)
	}
}

func TestMapRecordKeepsExplicitZero(t *testing.T) {
	rec := MapRecord(json.RawMessage(`{"Anio":0,"ID_mes":0,"Valor":0}`))
	if rec.Year == nil || *rec.Year != 0 {
		t.Fatalf("year zero must survive, got %v", rec.Year)
	}
	if rec.MonthID == nil || *rec.MonthID != 0 {
		t.Fatalf("month zero must survive, got %v", rec.MonthID)
	}
	if !rec.Value.Valid || !rec.Value.Decimal.IsZero() {
		t.Fatalf("value zero must survive, got %+v", rec.Value)
	}
}

func TestMapRecordEmptyStringsBecomeNull(t *testing.T) {
	rec := MapRecord(json.RawMessage(`{"Transporte":"","Variable":"","Entidad":null,"Municipio":false}`))
	if rec.TransportType != nil || rec.Variable != nil || rec.EntityName != nil || rec.MunicipalityName != nil {
		t.Fatalf("expected null strings, got %+v", rec)
	}
}

func TestMapRecordMissingFieldsAreNull(t *testing.T) {
	rec := MapRecord(json.RawMessage(`{}`))
	if rec.ExternalID != nil || rec.Year != nil || rec.Value.Valid || rec.Status != nil {
		t.Fatalf("expected all-null record, got %+v", rec)
	}
}

func TestMapRecordNeverFails(t *testing.T) {
	for _, raw := range []string{`null`, `42`, `"text"`, `[1,2]`} {
		rec := MapRecord(json.RawMessage(raw))
		if rec.Year != nil || rec.Value.Valid || rec.MonthID != nil || len(rec.Uncoerced) != 0 {
			t.Fatalf("%s: expected all-null record, got %+v", raw, rec)
		}
	}
}

func TestMapRecordKeepsMalformedNumericLiterals(t *testing.T) {
	rec := MapRecord(json.RawMessage(`{"Anio":"abc","ID_mes":1.5,"Valor":"n/a","ID_entidad":1e20,"ID_Municipio":true}`))

	want := map[string]string{
		models.ColumnYear:           "abc",
		models.ColumnMonthID:        "1.5",
		models.ColumnValue:          "n/a",
		models.ColumnEntityID:       "1e20",
		models.ColumnMunicipalityID: "true",
	}
	if len(rec.Uncoerced) != len(want) {
		t.Fatalf("expected %d kept literals, got %v", len(want), rec.Uncoerced)
	}
	for column, literal := range want {
		if got := rec.Uncoerced[column]; got != literal {
			t.Fatalf("%s: expected literal %q, got %q", column, literal, got)
		}
	}
	if rec.Year != nil || rec.MonthID != nil || rec.EntityID != nil || rec.Value.Valid {
		t.Fatalf("typed fields must stay unset when a literal is kept: %+v", rec)
	}
}

func TestMapRecordParsedValuesKeepNoLiteral(t *testing.T) {
	rec := MapRecord(json.RawMessage(`{"Anio":" 2020 ","ID_mes":4.0,"Valor":"12.50"}`))
	if rec.Uncoerced != nil {
		t.Fatalf("expected no kept literals, got %v", rec.Uncoerced)
	}
	if rec.Year == nil || *rec.Year != 2020 || rec.MonthID == nil || *rec.MonthID != 4 {
		t.Fatalf("year/month: %v %v", rec.Year, rec.MonthID)
	}
}

func TestMapRecordCoercesNumericStrings(t *testing.T) {
	rec := MapRecord(json.RawMessage(`{"Anio":"2020","ID_entidad":14.0,"Valor":"99.95","_id":12}`))
	if rec.Year == nil || *rec.Year != 2020 {
		t.Fatalf("year: %v", rec.Year)
	}
	if rec.EntityID == nil || *rec.EntityID != 14 {
		t.Fatalf("entity id: %v", rec.EntityID)
	}
	if rec.Value.Decimal.String() != "99.95" {
		t.Fatalf("value: %s", rec.Value.Decimal)
	}
	if rec.ExternalID == nil || *rec.ExternalID != "12" {
		t.Fatalf("numeric id keeps literal form: %v", rec.ExternalID)
	}
}

func TestMapRecordsPreservesCount(t *testing.T) {
	items := []json.RawMessage{json.RawMessage(`{}`), json.RawMessage(`null`), json.RawMessage(`{"Anio":2020}`)}
	if got := len(MapRecords(items)); got != 3 {
		t.Fatalf("expected 3 records, got %d", got)
	}
}
