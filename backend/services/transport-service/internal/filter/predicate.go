// Package filter turns a statistics filter request into a storage predicate.
package filter

import (
	"fmt"
	"strings"

	"transporte/backend/services/transport-service/internal/models"
)

// Field names a filterable column of the transporte table.
type Field string

const (
	FieldYear          Field = "year"
	FieldMonth         Field = "month_id"
	FieldTransportType Field = "transport_type"
	FieldVariable      Field = "variable"
)

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpBetween
)

// Condition constrains one field. Between bounds are inclusive.
type Condition struct {
	Field Field
	Op    Op
	Int   int
	High  int
	Text  string
}

// Predicate is the conjunction of its conditions. An empty predicate matches everything.
type Predicate struct {
	Conditions []Condition
}

// Build derives the predicate from a filter request.
//
// Year and month: both bounds give an inclusive range, only the start gives
// equality, only the end gives nothing. Transport type gives exact equality.
// The variable constraint is applied only together with a transport type.
func Build(req models.FilterRequest) Predicate {
	var p Predicate

	p.addRange(FieldYear, req.YearStart, req.YearEnd)
	p.addRange(FieldMonth, req.MonthStart, req.MonthEnd)

	if req.TransportType != nil {
		p.Conditions = append(p.Conditions, Condition{Field: FieldTransportType, Op: OpEq, Text: *req.TransportType})
		if req.Variable != nil {
			p.Conditions = append(p.Conditions, Condition{Field: FieldVariable, Op: OpEq, Text: *req.Variable})
		}
	}

	return p
}

func (p *Predicate) addRange(field Field, start, end *int) {
	switch {
	case start != nil && end != nil:
		p.Conditions = append(p.Conditions, Condition{Field: field, Op: OpBetween, Int: *start, High: *end})
	case start != nil:
		p.Conditions = append(p.Conditions, Condition{Field: field, Op: OpEq, Int: *start})
	}
}

// Empty reports whether the predicate imposes no constraint.
func (p Predicate) Empty() bool {
	return len(p.Conditions) == 0
}

// Where renders the predicate as a SQL boolean expression with positional
// placeholders numbered from startArg. An empty predicate renders "".
func (p Predicate) Where(startArg int) (string, []any) {
	if p.Empty() {
		return "", nil
	}

	clauses := make([]string, 0, len(p.Conditions))
	args := make([]any, 0, len(p.Conditions)+1)
	n := startArg

	for _, c := range p.Conditions {
		switch {
		case c.Op == OpBetween:
			clauses = append(clauses, fmt.Sprintf("%s BETWEEN $%d AND $%d", c.Field, n, n+1))
			args = append(args, c.Int, c.High)
			n += 2
		case c.Field.isText():
			clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Field, n))
			args = append(args, c.Text)
			n++
		default:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Field, n))
			args = append(args, c.Int)
			n++
		}
	}

	return strings.Join(clauses, " AND "), args
}

// Matches evaluates the predicate against a record. A null field never matches a condition on it.
func (p Predicate) Matches(rec models.TransportRecord) bool {
	for _, c := range p.Conditions {
		if !c.matches(rec) {
			return false
		}
	}
	return true
}

func (c Condition) matches(rec models.TransportRecord) bool {
	if c.Field.isText() {
		v := textField(rec, c.Field)
		return v != nil && *v == c.Text
	}

	v := intField(rec, c.Field)
	if v == nil {
		return false
	}
	if c.Op == OpBetween {
		return *v >= c.Int && *v <= c.High
	}
	return *v == c.Int
}

func (f Field) isText() bool {
	return f == FieldTransportType || f == FieldVariable
}

func intField(rec models.TransportRecord, f Field) *int {
	switch f {
	case FieldYear:
		return rec.Year
	case FieldMonth:
		return rec.MonthID
	}
	return nil
}

func textField(rec models.TransportRecord, f Field) *string {
	switch f {
	case FieldTransportType:
		return rec.TransportType
	case FieldVariable:
		return rec.Variable
	}
	return nil
}
