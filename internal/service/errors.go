package service

import "errors"

var (
	// ErrEmptyQuery is returned when the query text is empty or whitespace
	// only. Rejected at the boundary, before extraction is attempted.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrBackendUnavailable is returned when the embedding backend cannot be
	// reached. Fatal for the current query: semantic search cannot proceed
	// without vectors.
	ErrBackendUnavailable = errors.New("embedding backend unavailable")

	// ErrAIDisabled is returned when the AI backend is not configured.
	ErrAIDisabled = errors.New("ai backend is not enabled")

	// ErrListingNotFound is returned when a listing ID is not in the catalog.
	ErrListingNotFound = errors.New("listing not found")
)
