package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/can-karakoc/ai-marketplace-search/internal/model"
	"github.com/can-karakoc/ai-marketplace-search/internal/service"
)

// ReindexHandler handles catalog re-embedding requests
type ReindexHandler struct {
	searchService *service.SearchService
}

// NewReindexHandler creates a new reindex handler
func NewReindexHandler(searchService *service.SearchService) *ReindexHandler {
	return &ReindexHandler{
		searchService: searchService,
	}
}

// Reindex handles POST /api/v1/reindex
func (h *ReindexHandler) Reindex(c *gin.Context) {
	embedded, errs := h.searchService.Reindex(c.Request.Context())

	response := model.ReindexResponse{
		Embedded: embedded,
		Failed:   len(errs),
		Errors:   errs,
	}

	if len(errs) > 0 {
		c.JSON(http.StatusPartialContent, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
