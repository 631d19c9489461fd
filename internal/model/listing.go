package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Listing represents a rental listing. Listings are immutable once loaded
// into the catalog.
type Listing struct {
	ID          int64           `json:"id" db:"id"`
	Description string          `json:"description" db:"description"`
	Price       float64         `json:"price" db:"price"`
	Amenities   JSONArray       `json:"amenities,omitempty" db:"amenities"`
	Location    string          `json:"location" db:"location"`
	Embedding   pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ScoredResult is a listing scored against one query. Results are built
// fresh per query and never persisted.
type ScoredResult struct {
	Listing
	SimilarityScore float64  `json:"similarity_score"`
	AmenityScore    float64  `json:"amenity_score"`
	PriceScore      float64  `json:"price_score"`
	FinalScore      float64  `json:"final_score"`
	Rank            int      `json:"rank"`
	MatchedReasons  []string `json:"matched_reasons"`
}

// JSONArray represents a JSONB string array column.
type JSONArray []string

// Value implements driver.Valuer.
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
