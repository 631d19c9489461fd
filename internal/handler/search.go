package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/can-karakoc/ai-marketplace-search/internal/model"
	"github.com/can-karakoc/ai-marketplace-search/internal/service"
)

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searchService *service.SearchService
	defaultLimit  int
	maxLimit      int
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService, defaultLimit, maxLimit int) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		defaultLimit:  defaultLimit,
		maxLimit:      maxLimit,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Validate and cap limits
	if req.Options == nil {
		req.Options = &model.SearchOptions{TopK: h.defaultLimit}
	}
	if req.Options.TopK <= 0 {
		req.Options.TopK = h.defaultLimit
	}
	if req.Options.TopK > h.maxLimit {
		req.Options.TopK = h.maxLimit
	}
	if req.Options.Offset < 0 {
		req.Options.Offset = 0
	}

	response, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query must not be empty"})
		case errors.Is(err, service.ErrBackendUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search failed: " + err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetListing handles GET /api/v1/listings/:id
func (h *SearchHandler) GetListing(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	listing, err := h.searchService.GetListing(id)
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, listing)
}
