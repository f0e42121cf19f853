package ingest

import "fmt"

// NormalizationError means no record array could be found in the API response.
type NormalizationError struct {
	Kind   PayloadKind
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize %s response: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("normalize %s response: %s", e.Kind, e.Reason)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// BatchWriteError is the failure of a single batch insert. It never aborts a run.
type BatchWriteError struct {
	Index int
	Size  int
	Err   error
}

func (e *BatchWriteError) Error() string {
	return fmt.Sprintf("batch %d (%d records): %v", e.Index, e.Size, e.Err)
}

func (e *BatchWriteError) Unwrap() error { return e.Err }
