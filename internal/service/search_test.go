package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/can-karakoc/ai-marketplace-search/internal/catalog"
	"github.com/can-karakoc/ai-marketplace-search/internal/model"
	"github.com/can-karakoc/ai-marketplace-search/internal/vocab"
)

// newTestService wires a search service over the given listings with the
// heuristic intent parser and a deterministic mock embedding backend.
func newTestService(t *testing.T, listings []model.Listing, ai *mockAIClient) (*SearchService, *catalog.Catalog) {
	t.Helper()

	if ai == nil {
		ai = newMockAIClient()
	}
	v := vocab.Default()
	cat := catalog.New(listings)
	embedder := NewEmbeddingProvider(ai, 64, 2)

	svc := NewSearchService(
		cat,
		NewIntentExtractor(nil, v), // heuristic-only intent extraction
		embedder,
		NewPriceScorer(PricePolicyHard),
		NewRanker(DefaultFusionWeights()),
		v,
		nil,
		nil,
	)
	return svc, cat
}

func TestSearch_BudgetAndAmenities(t *testing.T) {
	// Listing B is over the $1500 budget and must be excluded entirely.
	listings := []model.Listing{
		{ID: 1, Description: "Two bedroom apartment near downtown with gym and pool", Price: 1400, Amenities: model.JSONArray{"gym", "pool"}, Location: "downtown"},
		{ID: 2, Description: "Two bedroom apartment near downtown with gym", Price: 1600, Amenities: model.JSONArray{"gym"}, Location: "downtown"},
	}
	svc, _ := newTestService(t, listings, nil)

	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query: "2BR near downtown under $1500 with gym",
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(1), resp.Results[0].ID)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.Equal(t, 1.0, resp.Results[0].AmenityScore)

	require.NotNil(t, resp.Intent)
	require.NotNil(t, resp.Intent.MaxPrice)
	assert.Equal(t, 1500.0, *resp.Intent.MaxPrice)
	assert.NotEmpty(t, resp.SearchID)
}

func TestSearch_NoBudgetIsNeutral(t *testing.T) {
	listings := []model.Listing{
		{ID: 1, Description: "Studio in the old town", Price: 700, Location: "Rome"},
		{ID: 2, Description: "Penthouse with a terrace", Price: 4500, Location: "Rome"},
		{ID: 3, Description: "Family house with garden", Price: 2100, Location: "Rome"},
	}
	svc, _ := newTestService(t, listings, nil)

	resp, err := svc.Search(context.Background(), &model.SearchRequest{Query: "a bright place for the summer"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	for _, r := range resp.Results {
		assert.Equal(t, 1.0, r.PriceScore, "price signal must be neutral without a budget")
	}
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	svc, _ := newTestService(t, []model.Listing{{ID: 1, Description: "x", Price: 1}}, nil)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(context.Background(), &model.SearchRequest{Query: query})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestSearch_BackendUnavailable(t *testing.T) {
	ai := newMockAIClient()
	ai.embedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	svc, _ := newTestService(t, []model.Listing{{ID: 1, Description: "x", Price: 1}}, ai)

	_, err := svc.Search(context.Background(), &model.SearchRequest{Query: "anything at all"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnavailable, "backend failure must propagate, not return empty results")
}

func TestSearch_LocationFilter(t *testing.T) {
	listings := []model.Listing{
		{ID: 1, Description: "Canal-side apartment", Price: 1200, Location: "Amsterdam"},
		{ID: 2, Description: "Beachfront flat", Price: 1100, Location: "Barcelona"},
	}
	svc, _ := newTestService(t, listings, nil)

	resp, err := svc.Search(context.Background(), &model.SearchRequest{Query: "apartment in Amsterdam"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(1), resp.Results[0].ID)
}

func TestSearch_Deterministic(t *testing.T) {
	listings := []model.Listing{
		{ID: 3, Description: "Quiet room near the park", Price: 500, Location: "London"},
		{ID: 1, Description: "Loft with a view of the park", Price: 800, Location: "London"},
		{ID: 2, Description: "Park-side studio", Price: 650, Location: "London"},
	}
	svc, _ := newTestService(t, listings, nil)

	first, err := svc.Search(context.Background(), &model.SearchRequest{Query: "quiet park-side living"})
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), &model.SearchRequest{Query: "quiet park-side living"})
	require.NoError(t, err)

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].ID, second.Results[i].ID)
		assert.Equal(t, first.Results[i].Rank, second.Results[i].Rank)
	}
}

func TestSearch_Pagination(t *testing.T) {
	listings := []model.Listing{
		{ID: 1, Description: "one", Price: 1},
		{ID: 2, Description: "two", Price: 2},
		{ID: 3, Description: "three", Price: 3},
		{ID: 4, Description: "four", Price: 4},
	}
	svc, _ := newTestService(t, listings, nil)

	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:   "anything",
		Options: &model.SearchOptions{TopK: 2, Offset: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Total)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.Results[0].Rank, "ranks are global, not per page")
}

func TestSearch_ReusesWarmVectors(t *testing.T) {
	listings := []model.Listing{
		{ID: 1, Description: "warm flat", Price: 100},
		{ID: 2, Description: "cold flat", Price: 200},
	}
	ai := newMockAIClient()
	svc, cat := newTestService(t, listings, ai)

	cat.SetVector(1, hashVector("warm flat", 32))
	cat.SetVector(2, hashVector("cold flat", 32))

	_, err := svc.Search(context.Background(), &model.SearchRequest{Query: "a flat"})
	require.NoError(t, err)

	// Only the query itself needed the backend.
	_, embedCalls := ai.calls()
	assert.Equal(t, 1, embedCalls)
}

func TestGetListing(t *testing.T) {
	svc, _ := newTestService(t, []model.Listing{{ID: 7, Description: "x", Price: 1}}, nil)

	listing, err := svc.GetListing(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), listing.ID)

	_, err = svc.GetListing(99)
	assert.ErrorIs(t, err, ErrListingNotFound)
}
