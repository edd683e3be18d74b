package domain

import (
	"errors"
	"fmt"
)

// ErrNotIngested is returned when no knowledge base is loaded or persisted.
var ErrNotIngested = errors.New("knowledge base not ingested")

// NotIngestedNotice is the answer given to questions asked before ingestion.
const NotIngestedNotice = "Knowledge base not ingested yet. Call /ingest first."

// ExtractionError reports a source document that could not be turned into text.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("extraction failed: %v", e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ProviderError reports a failed call to the embedding or completion model.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("OpenAI API error: failed to %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IndexCorruptionError reports a persisted index and chunk store that cannot
// be loaded together.
type IndexCorruptionError struct {
	Reason string
	Err    error
}

func (e *IndexCorruptionError) Error() string {
	if e.Err == nil {
		return "index corrupted: " + e.Reason
	}
	return fmt.Sprintf("index corrupted: %s: %v", e.Reason, e.Err)
}

func (e *IndexCorruptionError) Unwrap() error { return e.Err }

// Corrupt builds an IndexCorruptionError with a formatted reason.
func Corrupt(err error, format string, args ...any) error {
	return &IndexCorruptionError{Reason: fmt.Sprintf(format, args...), Err: err}
}
