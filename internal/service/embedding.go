package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/can-karakoc/ai-marketplace-search/internal/catalog"
	"github.com/can-karakoc/ai-marketplace-search/internal/model"
)

// VectorSink receives computed listing vectors for persistence, so warm-up
// work survives restarts. May be nil.
type VectorSink interface {
	SaveEmbedding(ctx context.Context, listingID int64, embedding []float32) error
}

// EmbeddingProvider produces embedding vectors for query and listing text.
// Listing descriptions are cached by exact text (the backend is
// deterministic, so identical text yields an identical vector); query
// vectors are computed fresh per call. The cache is bounded by catalog size
// and safe for concurrent read and insert.
type EmbeddingProvider struct {
	ai        AIClient
	batchSize int
	poolSize  int

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewEmbeddingProvider creates a new embedding provider. poolSize bounds
// the concurrency of catalog warm-up.
func NewEmbeddingProvider(ai AIClient, batchSize, poolSize int) *EmbeddingProvider {
	if batchSize <= 0 {
		batchSize = 64
	}
	if poolSize <= 0 {
		poolSize = 1
	}
	return &EmbeddingProvider{
		ai:        ai,
		batchSize: batchSize,
		poolSize:  poolSize,
		cache:     make(map[string][]float32),
	}
}

// EmbedQuery embeds query text. Not cached: query texts are unbounded
// across sessions and would grow the cache without limit.
func (e *EmbeddingProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text)
}

// EmbedDocument embeds a listing description, consulting the cache first.
func (e *EmbeddingProvider) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	vec, ok := e.cache[text]
	e.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := e.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[text] = vec
	e.mu.Unlock()

	return vec, nil
}

// CacheSize returns the number of cached document vectors.
func (e *EmbeddingProvider) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func (e *EmbeddingProvider) embed(ctx context.Context, text string) ([]float32, error) {
	if e.ai == nil || !e.ai.IsEnabled() {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, ErrAIDisabled)
	}
	vecs, err := e.ai.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", ErrBackendUnavailable, len(vecs))
	}
	return vecs[0], nil
}

// WarmCatalog embeds every listing description that has no vector yet,
// fanning batches out over a bounded worker pool. A failed batch is retried
// item by item so one bad item cannot discard the rest of its batch.
// Returns the number of listings embedded and per-item errors.
func (e *EmbeddingProvider) WarmCatalog(ctx context.Context, cat *catalog.Catalog, sink VectorSink) (int, []string) {
	if e.ai == nil || !e.ai.IsEnabled() {
		return 0, []string{"embedding backend is not configured"}
	}

	missing := cat.MissingVectors()
	if len(missing) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(e.poolSize)
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to create worker pool: %v", err)}
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		embedded int
		errs     []string
	)

	for start := 0; start < len(missing); start += e.batchSize {
		end := start + e.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			ok, batchErrs := e.embedListings(ctx, cat, sink, batch)
			mu.Lock()
			embedded += ok
			errs = append(errs, batchErrs...)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Sprintf("failed to submit batch: %v", submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()

	log.Info().
		Int("embedded", embedded).
		Int("failed", len(errs)).
		Msg("catalog embedding warm-up complete")

	return embedded, errs
}

// embedListings embeds one batch of listings, falling back to per-item
// requests when the batch call fails.
func (e *EmbeddingProvider) embedListings(ctx context.Context, cat *catalog.Catalog, sink VectorSink, batch []model.Listing) (int, []string) {
	texts := make([]string, len(batch))
	for i, listing := range batch {
		texts[i] = listing.Description
	}

	vecs, err := e.ai.CreateEmbeddings(ctx, texts)
	if err == nil && len(vecs) == len(batch) {
		for i, listing := range batch {
			e.store(ctx, cat, sink, listing.ID, texts[i], vecs[i])
		}
		return len(batch), nil
	}

	log.Warn().Err(err).Int("batch_size", len(batch)).Msg("batch embedding failed, retrying items individually")

	var errs []string
	embedded := 0
	for i, listing := range batch {
		vec, itemErr := e.embed(ctx, texts[i])
		if itemErr != nil {
			errs = append(errs, fmt.Sprintf("listing %d: %v", listing.ID, itemErr))
			continue
		}
		e.store(ctx, cat, sink, listing.ID, texts[i], vec)
		embedded++
	}
	return embedded, errs
}

func (e *EmbeddingProvider) store(ctx context.Context, cat *catalog.Catalog, sink VectorSink, listingID int64, text string, vec []float32) {
	cat.SetVector(listingID, vec)

	e.mu.Lock()
	e.cache[text] = vec
	e.mu.Unlock()

	if sink != nil {
		if err := sink.SaveEmbedding(ctx, listingID, vec); err != nil {
			log.Warn().Err(err).Int64("listing_id", listingID).Msg("failed to persist embedding")
		}
	}
}
