package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/can-karakoc/ai-marketplace-search/internal/config"
	"github.com/can-karakoc/ai-marketplace-search/internal/utils"
)

// OpenAIClient talks to an OpenAI-compatible API for chat completions
// (intent extraction) and embeddings. The HTTP client enforces a bounded
// per-call timeout so a slow backend cannot block a query indefinitely.
type OpenAIClient struct {
	config     *config.OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg *config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClient) IsEnabled() bool {
	return c.config.Enabled
}

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage represents a single message in the conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the format of the response
type ResponseFormat struct {
	Type string `json:"type"` // "json_object" or "text"
}

// ChatCompletionResponse represents the API response
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbeddingRequest represents an embedding request
type EmbeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

// EmbeddingResponse represents the embedding API response
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatCompletion performs a chat completion request
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if !c.config.Enabled {
		return nil, ErrAIDisabled
	}

	if req.Model == "" {
		req.Model = c.config.ChatModel
	}
	if req.Temperature == 0 && c.config.ChatTemperature > 0 {
		req.Temperature = c.config.ChatTemperature
	}
	if req.MaxTokens == 0 && c.config.ChatMaxTokens > 0 {
		req.MaxTokens = c.config.ChatMaxTokens
	}

	var result ChatCompletionResponse
	if err := c.post(ctx, "/chat/completions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateEmbeddings creates embeddings for the given texts, batching requests
// to respect the backend's input limits.
func (c *OpenAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if !c.config.Enabled {
		return nil, ErrAIDisabled
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))
	batchSize := c.config.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}

	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := c.createEmbeddingBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings for batch %d: %w", i/batchSize, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)

		// Rate limiting: small delay between batches
		if end < len(texts) {
			time.Sleep(100 * time.Millisecond)
		}
	}

	return allEmbeddings, nil
}

// createEmbeddingBatch creates embeddings for a single batch
func (c *OpenAIClient) createEmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := EmbeddingRequest{
		Model:          c.config.EmbeddingModel,
		Input:          texts,
		Dimensions:     c.config.EmbeddingDimensions,
		EncodingFormat: "float",
	}

	var result EmbeddingResponse
	if err := c.post(ctx, "/embeddings", req, &result); err != nil {
		return nil, err
	}

	// Extract embeddings in input order
	embeddings := make([][]float32, len(texts))
	for _, item := range result.Data {
		if item.Index < len(embeddings) {
			embeddings[item.Index] = item.Embedding
		}
	}
	for i, vec := range embeddings {
		if len(vec) == 0 {
			return nil, fmt.Errorf("embedding backend returned no vector for input %d", i)
		}
	}

	log.Debug().
		Int("count", len(embeddings)).
		Str("model", result.Model).
		Int("tokens", result.Usage.TotalTokens).
		Msg("created embeddings")

	return embeddings, nil
}

const intentSystemPrompt = `You are a rental marketplace search assistant. Parse the user's natural language query into structured search filters.

Extract the following information if present:
- location: city or neighbourhood name (string)
- max_price: maximum budget as a non-negative number (e.g. "under $1500" means 1500)
- amenities: array of requested amenities/features (e.g. ["hot tub", "wifi", "parking"])
- keywords: array of important descriptive keywords for semantic search (e.g. "cozy", "view", "renovated")

Important rules:
- Respond ONLY with valid JSON
- If a field is not mentioned, omit it
- For prices: "2k" = 2000, "1,500" = 1500; never output a negative price
- Amenity names go in amenities, descriptive qualities go in keywords

Examples:
Query: "2BR near downtown under $1500 with gym"
Response: {"location": "downtown", "max_price": 1500, "amenities": ["gym"], "keywords": ["2br", "downtown"]}

Query: "cozy cottage with a hot tub and garden"
Response: {"amenities": ["hot tub"], "keywords": ["cozy", "cottage", "garden"]}

Query: "pet friendly flat in Barcelona, budget 900"
Response: {"location": "Barcelona", "max_price": 900, "amenities": ["pets allowed"], "keywords": ["flat", "barcelona"]}`

// ExtractIntent uses the chat backend to parse a query into structured
// fields, with strict validation of the response.
func (c *OpenAIClient) ExtractIntent(ctx context.Context, query string) (*AIIntentResponse, error) {
	if !c.config.Enabled {
		return nil, ErrAIDisabled
	}

	req := ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []ChatMessage{
			{Role: "system", Content: intentSystemPrompt},
			{Role: "user", Content: query},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	resp, err := c.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from intent backend")
	}

	// The backend may wrap JSON in markdown or commentary; use the tolerant
	// parser before validating.
	content := resp.Choices[0].Message.Content
	var result AIIntentResponse
	if err := utils.ParseAIJSON(content, &result); err != nil {
		log.Debug().Str("content", content).Msg("unparsable intent response")
		return nil, fmt.Errorf("failed to parse intent response: %w", err)
	}

	if err := validateIntentResponse(&result); err != nil {
		return nil, fmt.Errorf("intent response validation failed: %w", err)
	}

	return &result, nil
}

// validateIntentResponse rejects responses that violate the schema. A
// rejected response triggers the heuristic fallback upstream; unvalidated
// fields are never trusted downstream.
func validateIntentResponse(resp *AIIntentResponse) error {
	if resp.MaxPrice != nil && *resp.MaxPrice < 0 {
		// Treat a negative extracted price as absent rather than failing
		// the whole extraction.
		resp.MaxPrice = nil
	}
	if resp.Location != nil {
		loc := strings.TrimSpace(strings.Trim(strings.TrimSpace(*resp.Location), `"'`))
		if loc == "" {
			resp.Location = nil
		} else {
			resp.Location = &loc
		}
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %f", resp.Confidence)
	}
	return nil
}

// post sends a JSON request to the given API path and decodes the response.
func (c *OpenAIClient) post(ctx context.Context, path string, payload, out interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.config.APIBase, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
