package model

// QueryIntent is the structured intent extracted from a free-text query.
// Amenities are always canonical vocabulary tags, never raw user tokens.
type QueryIntent struct {
	RawText    string   `json:"raw_text"`
	Location   *string  `json:"location,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	Amenities  []string `json:"amenities"`
	Keywords   []string `json:"keywords,omitempty"`
	Confidence float64  `json:"confidence"`
	// Degraded marks an intent recovered by the heuristic parser after the
	// AI backend failed. Surfaced as lower confidence, never as an error.
	Degraded bool `json:"degraded,omitempty"`
}
