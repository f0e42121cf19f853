package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDescribeResponseArray(t *testing.T) {
	result := DescribeResponse([]byte(`[{"a":1},{"a":2},{"a":3}]`))

	if !result.IsArray || result.ResponseType != "object" {
		t.Fatalf("unexpected shape %+v", result)
	}
	if result.SampleSize == nil || *result.SampleSize != 3 {
		t.Fatalf("expected sample size 3, got %v", result.SampleSize)
	}
	sample, ok := result.Sample.([]json.RawMessage)
	if !ok || len(sample) != 2 {
		t.Fatalf("expected first two items, got %#v", result.Sample)
	}
}

func TestDescribeResponseObject(t *testing.T) {
	result := DescribeResponse([]byte(`{"data":[]}`))
	if result.IsArray || result.SampleSize != nil || result.ResponseType != "object" {
		t.Fatalf("unexpected shape %+v", result)
	}
	raw, ok := result.Sample.(json.RawMessage)
	if !ok || string(raw) != `{"data":[]}` {
		t.Fatalf("object should be returned whole, got %#v", result.Sample)
	}
}

func TestDescribeResponseEmptyArray(t *testing.T) {
	result := DescribeResponse([]byte(`[]`))
	if !result.IsArray || result.SampleSize == nil || *result.SampleSize != 0 {
		t.Fatalf("unexpected shape %+v", result)
	}
}

func TestDescribeResponseTruncatesText(t *testing.T) {
	long := strings.Repeat("á", 600)
	result := DescribeResponse([]byte(`"` + long + `"`))
	if result.ResponseType != "string" {
		t.Fatalf("unexpected type %s", result.ResponseType)
	}
	if s, _ := result.Sample.(string); len([]rune(s)) != 500 {
		t.Fatalf("expected 500 characters, got %d", len([]rune(s)))
	}

	html := DescribeResponse([]byte("<html>down</html>"))
	if html.ResponseType != "string" || html.Sample != "<html>down</html>" {
		t.Fatalf("unexpected non-json probe %+v", html)
	}
}

func TestProbePropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("timeout")
	ingestor := NewIngestor(&fakeFetcher{err: fetchErr}, &fakeInserter{}, nil)
	if _, err := ingestor.Probe(context.Background()); !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
