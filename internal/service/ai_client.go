package service

import (
	"context"
)

// AIClient is the interface for the remote AI backends: structured intent
// extraction (chat completion) and sentence embeddings.
type AIClient interface {
	// ExtractIntent parses a free-text query into structured fields.
	ExtractIntent(ctx context.Context, query string) (*AIIntentResponse, error)

	// CreateEmbeddings generates one fixed-dimension vector per input text.
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether the client is configured and ready.
	IsEnabled() bool
}

// AIIntentResponse is the validated structured response from the intent
// extraction backend. Fields are omitted when not mentioned in the query.
type AIIntentResponse struct {
	Location   *string  `json:"location,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	Amenities  []string `json:"amenities,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
