package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/can-karakoc/ai-marketplace-search/internal/catalog"
	"github.com/can-karakoc/ai-marketplace-search/internal/model"
	"github.com/can-karakoc/ai-marketplace-search/internal/service"
	"github.com/can-karakoc/ai-marketplace-search/internal/vocab"
)

type stubAIClient struct {
	embedErr error
}

func (s *stubAIClient) ExtractIntent(ctx context.Context, query string) (*service.AIIntentResponse, error) {
	return nil, errors.New("not used")
}

func (s *stubAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New64a()
		h.Write([]byte(text))
		seed := h.Sum64()
		vec := make([]float32, 16)
		for j := range vec {
			seed = seed*6364136223846793005 + 1442695040888963407
			vec[j] = float32(int64(seed>>33)) / float32(1<<30)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (s *stubAIClient) IsEnabled() bool { return true }

func newTestRouter(t *testing.T, ai service.AIClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v := vocab.Default()
	cat := catalog.New([]model.Listing{
		{ID: 1, Description: "two bedroom flat with gym", Price: 1400, Amenities: model.JSONArray{"gym"}, Location: "downtown"},
		{ID: 2, Description: "studio by the river", Price: 900, Location: "downtown"},
	})

	svc := service.NewSearchService(
		cat,
		service.NewIntentExtractor(nil, v),
		service.NewEmbeddingProvider(ai, 64, 1),
		service.NewPriceScorer(service.PricePolicyHard),
		service.NewRanker(service.DefaultFusionWeights()),
		v,
		nil,
		nil,
	)

	router := gin.New()
	searchHandler := NewSearchHandler(svc, 10, 100)
	router.POST("/api/v1/search", searchHandler.Search)
	router.GET("/api/v1/listings/:id", searchHandler.GetListing)
	router.POST("/api/v1/reindex", NewReindexHandler(svc).Reindex)
	router.POST("/api/v1/feedback", NewFeedbackHandler(svc).Submit)
	return router
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchEndpoint(t *testing.T) {
	t.Run("valid query returns 200", func(t *testing.T) {
		router := newTestRouter(t, &stubAIClient{})
		w := postJSON(router, "/api/v1/search", model.SearchRequest{Query: "flat with gym under $1500"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.SearchID)
		assert.NotEmpty(t, resp.Results)
	})

	t.Run("missing query returns 400", func(t *testing.T) {
		router := newTestRouter(t, &stubAIClient{})
		w := postJSON(router, "/api/v1/search", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("whitespace query returns 400", func(t *testing.T) {
		router := newTestRouter(t, &stubAIClient{})
		w := postJSON(router, "/api/v1/search", model.SearchRequest{Query: "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("embedding backend failure returns 503", func(t *testing.T) {
		router := newTestRouter(t, &stubAIClient{embedErr: errors.New("connection refused")})
		w := postJSON(router, "/api/v1/search", model.SearchRequest{Query: "a flat"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestGetListingEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubAIClient{})

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/99", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReindexEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubAIClient{})
	w := postJSON(router, "/api/v1/reindex", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ReindexResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Embedded)
	assert.Zero(t, resp.Failed)
}

func TestFeedbackEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubAIClient{})

	t.Run("valid action", func(t *testing.T) {
		w := postJSON(router, "/api/v1/feedback", model.FeedbackRequest{
			SearchID:  "abc",
			ListingID: 1,
			Action:    "click",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid action", func(t *testing.T) {
		w := postJSON(router, "/api/v1/feedback", model.FeedbackRequest{
			SearchID:  "abc",
			ListingID: 1,
			Action:    "purchase",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
