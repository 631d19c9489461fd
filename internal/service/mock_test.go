package service

import (
	"context"
	"hash/fnv"
	"sync"
)

// mockAIClient is a test double for AIClient. Behavior is injectable via
// function fields; defaults are deterministic.
type mockAIClient struct {
	extractFunc func(ctx context.Context, query string) (*AIIntentResponse, error)
	embedFunc   func(ctx context.Context, texts []string) ([][]float32, error)
	enabled     bool

	mu           sync.Mutex
	extractCalls int
	embedCalls   int
}

func newMockAIClient() *mockAIClient {
	return &mockAIClient{enabled: true}
}

func (m *mockAIClient) ExtractIntent(ctx context.Context, query string) (*AIIntentResponse, error) {
	m.mu.Lock()
	m.extractCalls++
	m.mu.Unlock()

	if m.extractFunc != nil {
		return m.extractFunc(ctx, query)
	}
	return &AIIntentResponse{}, nil
}

func (m *mockAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()

	if m.embedFunc != nil {
		return m.embedFunc(ctx, texts)
	}

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = hashVector(text, 32)
	}
	return vecs, nil
}

func (m *mockAIClient) IsEnabled() bool {
	return m.enabled
}

func (m *mockAIClient) calls() (extract, embed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extractCalls, m.embedCalls
}

// hashVector generates a deterministic pseudo-random vector from text, so
// identical text always embeds identically.
func hashVector(text string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dim)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)) / float32(1<<30)
	}
	return vec
}
