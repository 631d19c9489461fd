package model

// SearchRequest represents a search query request
type SearchRequest struct {
	Query   string         `json:"query" binding:"required"`
	Options *SearchOptions `json:"options,omitempty"`
}

// SearchOptions represents search options
type SearchOptions struct {
	TopK   int `json:"top_k"`
	Offset int `json:"offset"`
}

// SearchResponse represents a search result response
type SearchResponse struct {
	SearchID string         `json:"search_id"`
	Results  []ScoredResult `json:"results"`
	Total    int            `json:"total"`
	Intent   *QueryIntent   `json:"intent,omitempty"`
	Took     int64          `json:"took_ms"`
}

// ReindexResponse reports the outcome of a catalog re-embedding run.
type ReindexResponse struct {
	Embedded int      `json:"embedded"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// FeedbackRequest represents a user action on a returned listing
type FeedbackRequest struct {
	SearchID  string `json:"search_id" binding:"required"`
	ListingID int64  `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // click, contact, save
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
