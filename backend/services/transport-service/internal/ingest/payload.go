package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// PayloadKind tags the shape of a decoded API response.
type PayloadKind int

const (
	KindOther PayloadKind = iota
	KindSequence
	KindMapping
	KindString
)

// String returns the kind name as reported by the probe endpoint.
func (k PayloadKind) String() string {
	switch k {
	case KindSequence:
		return "array"
	case KindMapping:
		return "object"
	case KindString:
		return "string"
	default:
		return "other"
	}
}

// MappingEntry is one key of a JSON object, kept in document order.
type MappingEntry struct {
	Key   string
	Value json.RawMessage
}

// Payload is a decoded API response. Exactly one of the shape fields is
// meaningful, selected by Kind.
type Payload struct {
	Kind     PayloadKind
	Sequence []json.RawMessage
	Mapping  []MappingEntry
	String   string
	Raw      json.RawMessage
}

// DecodePayload classifies raw JSON into a Payload.
func DecodePayload(raw []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Payload{}, errors.New("payload: empty document")
	}

	p := Payload{Raw: json.RawMessage(trimmed)}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Payload{}, fmt.Errorf("payload: decode array: %w", err)
		}
		p.Kind = KindSequence
		p.Sequence = items
	case '{':
		entries, err := decodeOrderedObject(trimmed)
		if err != nil {
			return Payload{}, err
		}
		p.Kind = KindMapping
		p.Mapping = entries
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Payload{}, fmt.Errorf("payload: decode string: %w", err)
		}
		p.Kind = KindString
		p.String = s
	default:
		if !json.Valid(trimmed) {
			return Payload{}, errors.New("payload: invalid json")
		}
		p.Kind = KindOther
	}
	return p, nil
}

func decodeOrderedObject(raw []byte) ([]MappingEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("payload: decode object: %w", err)
	}

	var entries []MappingEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("payload: decode object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("payload: unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("payload: decode value of %q: %w", key, err)
		}
		entries = append(entries, MappingEntry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("payload: decode object end: %w", err)
	}
	return entries, nil
}

// Normalize extracts the array of raw records from a payload.
//
// A sequence is returned as is. For a mapping, the first value (in document
// order) that is itself a sequence is returned; an empty mapping yields no
// records. A string is decoded as JSON and accepted when it holds a sequence.
// Anything else is a NormalizationError.
func Normalize(p Payload) ([]json.RawMessage, error) {
	switch p.Kind {
	case KindSequence:
		return p.Sequence, nil
	case KindMapping:
		if len(p.Mapping) == 0 {
			return []json.RawMessage{}, nil
		}
		for _, entry := range p.Mapping {
			nested, err := DecodePayload(entry.Value)
			if err != nil {
				continue
			}
			if nested.Kind == KindSequence {
				return nested.Sequence, nil
			}
		}
		return nil, &NormalizationError{Kind: p.Kind, Reason: "no array property found"}
	case KindString:
		nested, err := DecodePayload([]byte(p.String))
		if err != nil {
			return nil, &NormalizationError{Kind: p.Kind, Reason: "string is not valid json", Err: err}
		}
		if nested.Kind != KindSequence {
			return nil, &NormalizationError{Kind: p.Kind, Reason: "string does not hold an array"}
		}
		return nested.Sequence, nil
	default:
		return nil, &NormalizationError{Kind: p.Kind, Reason: "unsupported response shape"}
	}
}
