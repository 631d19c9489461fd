package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/can-karakoc/ai-marketplace-search/internal/catalog"
	"github.com/can-karakoc/ai-marketplace-search/internal/model"
	"github.com/can-karakoc/ai-marketplace-search/internal/vocab"
)

// SearchLogger records completed searches and user feedback. May be nil.
type SearchLogger interface {
	LogSearch(ctx context.Context, searchID, query string, intent *model.QueryIntent, resultIDs []int64, tookMs int64) error
	LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error
}

// SearchService runs the query pipeline: intent extraction, query
// embedding, per-listing scoring and rank fusion over the in-memory
// catalog.
type SearchService struct {
	catalog  *catalog.Catalog
	intent   *IntentExtractor
	embedder *EmbeddingProvider
	prices   *PriceScorer
	ranker   *Ranker
	vocab    *vocab.Vocabulary
	sink     VectorSink
	logs     SearchLogger
}

// NewSearchService creates a new search service. sink and logs may be nil.
func NewSearchService(
	cat *catalog.Catalog,
	intent *IntentExtractor,
	embedder *EmbeddingProvider,
	prices *PriceScorer,
	ranker *Ranker,
	v *vocab.Vocabulary,
	sink VectorSink,
	logs SearchLogger,
) *SearchService {
	return &SearchService{
		catalog:  cat,
		intent:   intent,
		embedder: embedder,
		prices:   prices,
		ranker:   ranker,
		vocab:    v,
		sink:     sink,
		logs:     logs,
	}
}

// Search performs a complete search for one query. An unreachable embedding
// backend fails the search with ErrBackendUnavailable rather than
// returning an empty result list.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	startTime := time.Now()

	intent := s.intent.Extract(ctx, query)

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates := s.collectCandidates(ctx, intent, queryVec)
	results := s.ranker.Fuse(candidates, intent)
	total := len(results)
	results = paginate(results, req.Options)

	took := time.Since(startTime).Milliseconds()
	searchID := uuid.NewString()

	// Log search (non-blocking)
	if s.logs != nil {
		go func() {
			resultIDs := make([]int64, len(results))
			for i, r := range results {
				resultIDs[i] = r.ID
			}
			if err := s.logs.LogSearch(context.Background(), searchID, query, intent, resultIDs, took); err != nil {
				log.Warn().Err(err).Str("search_id", searchID).Msg("failed to log search")
			}
		}()
	}

	return &model.SearchResponse{
		SearchID: searchID,
		Results:  results,
		Total:    total,
		Intent:   intent,
		Took:     took,
	}, nil
}

// collectCandidates scores every catalog listing that survives the location
// and hard price filters. A listing whose vector cannot be computed is
// skipped (per-item isolation); the rest of the batch still completes.
func (s *SearchService) collectCandidates(ctx context.Context, intent *model.QueryIntent, queryVec []float32) []Candidate {
	candidates := make([]Candidate, 0, s.catalog.Len())

	for _, listing := range s.catalog.Listings() {
		if intent.Location != nil && !matchesLocation(listing.Location, *intent.Location) {
			continue
		}
		if s.prices.Excludes(intent.MaxPrice, listing.Price) {
			continue
		}

		listingVec, ok := s.catalog.Vector(listing.ID)
		if !ok {
			var err error
			listingVec, err = s.embedder.EmbedDocument(ctx, listing.Description)
			if err != nil {
				log.Warn().Err(err).Int64("listing_id", listing.ID).Msg("skipping listing without vector")
				continue
			}
			s.catalog.SetVector(listing.ID, listingVec)
		}

		candidates = append(candidates, Candidate{
			Listing:    listing,
			Similarity: Cosine(queryVec, listingVec),
			Amenity:    AmenityOverlap(intent.Amenities, s.vocab.NormalizeAll(listing.Amenities)),
			Price:      s.prices.Score(intent.MaxPrice, listing.Price),
		})
	}

	return candidates
}

// GetListing retrieves a single listing from the catalog.
func (s *SearchService) GetListing(id int64) (*model.Listing, error) {
	listing, ok := s.catalog.Get(id)
	if !ok {
		return nil, ErrListingNotFound
	}
	return &listing, nil
}

// Reindex re-embeds catalog listings that are missing vectors.
func (s *SearchService) Reindex(ctx context.Context) (int, []string) {
	return s.embedder.WarmCatalog(ctx, s.catalog, s.sink)
}

// LogFeedback records a user action against a logged search.
func (s *SearchService) LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error {
	if s.logs == nil {
		return nil
	}
	return s.logs.LogFeedback(ctx, searchID, listingID, action)
}

// matchesLocation is a case-insensitive substring match of the extracted
// location against the listing location.
func matchesLocation(listingLocation, wanted string) bool {
	return strings.Contains(
		strings.ToLower(listingLocation),
		strings.ToLower(strings.TrimSpace(wanted)),
	)
}

func paginate(results []model.ScoredResult, opts *model.SearchOptions) []model.ScoredResult {
	if opts == nil {
		return results
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []model.ScoredResult{}
	}
	results = results[offset:]
	if opts.TopK > 0 && opts.TopK < len(results) {
		results = results[:opts.TopK]
	}
	return results
}
