package ingest

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"transporte/backend/services/transport-service/internal/models"
)

// ProbeMessage is reported when the external API answered.
const ProbeMessage = "Conexión con API exitosa"

const (
	probeSampleItems = 2
	probeSampleChars = 500
)

// Probe fetches the external API once and describes the response shape
// without writing anything.
func (i *Ingestor) Probe(ctx context.Context) (models.ProbeResult, error) {
	raw, err := i.fetcher.Fetch(ctx)
	if err != nil {
		i.logger.Error("external api probe failed", zap.Error(err))
		return models.ProbeResult{}, err
	}
	return DescribeResponse(raw), nil
}

// DescribeResponse builds the probe report for a raw response body. Arrays
// are sampled by their first items, objects are returned whole and any other
// value is returned as truncated text.
func DescribeResponse(raw []byte) models.ProbeResult {
	result := models.ProbeResult{Message: ProbeMessage}

	payload, err := DecodePayload(raw)
	if err != nil {
		// not JSON: reported as plain text
		result.ResponseType = "string"
		result.Sample = truncate(string(raw), probeSampleChars)
		return result
	}

	switch payload.Kind {
	case KindSequence:
		result.ResponseType = "object"
		result.IsArray = true
		size := len(payload.Sequence)
		result.SampleSize = &size
		if size > 0 {
			n := probeSampleItems
			if size < n {
				n = size
			}
			result.Sample = payload.Sequence[:n]
		} else {
			result.Sample = payload.Raw
		}
	case KindMapping:
		result.ResponseType = "object"
		result.Sample = payload.Raw
	case KindString:
		result.ResponseType = "string"
		result.Sample = truncate(payload.String, probeSampleChars)
	default:
		switch payload.Raw[0] {
		case 'n':
			result.ResponseType = "object"
			result.Sample = payload.Raw
		case 't', 'f':
			result.ResponseType = "boolean"
			result.Sample = truncate(string(payload.Raw), probeSampleChars)
		default:
			result.ResponseType = "number"
			result.Sample = truncate(string(payload.Raw), probeSampleChars)
		}
	}
	return result
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
