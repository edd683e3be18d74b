package usecase

import (
	"errors"

	"kbrag/internal/domain"
)

// Operation names the boundary operation a failure came from.
type Operation int

const (
	OpIngest Operation = iota
	OpChat
)

// FailureDetail renders err for clients. Provider failures keep their own
// "OpenAI API error:" message; anything else is prefixed by the operation.
func FailureDetail(op Operation, err error) string {
	var providerErr *domain.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Error()
	}

	if op == OpIngest {
		return "Error during ingestion: " + err.Error()
	}
	return "Error processing request: " + err.Error()
}
