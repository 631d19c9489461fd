// Package catalog holds the in-memory listing collection the engine
// searches over. Listings are immutable after load; the vector table is
// safe for concurrent read and insert.
package catalog

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/can-karakoc/ai-marketplace-search/internal/model"
)

// Catalog is an immutable listing collection plus a concurrency-safe table
// of listing embedding vectors, keyed by listing ID.
type Catalog struct {
	listings []model.Listing
	byID     map[int64]model.Listing

	mu      sync.RWMutex
	vectors map[int64][]float32
}

// New builds a catalog from loaded listings. Listings with a negative price
// are excluded rather than failing the load; persisted embeddings seed the
// vector table.
func New(listings []model.Listing) *Catalog {
	c := &Catalog{
		listings: make([]model.Listing, 0, len(listings)),
		byID:     make(map[int64]model.Listing, len(listings)),
		vectors:  make(map[int64][]float32, len(listings)),
	}

	for _, listing := range listings {
		if listing.Price < 0 {
			log.Warn().Int64("listing_id", listing.ID).Msg("excluding listing with invalid price")
			continue
		}
		if _, dup := c.byID[listing.ID]; dup {
			log.Warn().Int64("listing_id", listing.ID).Msg("excluding duplicate listing id")
			continue
		}
		c.listings = append(c.listings, listing)
		c.byID[listing.ID] = listing

		if vec := listing.Embedding.Slice(); len(vec) > 0 {
			c.vectors[listing.ID] = vec
		}
	}

	sort.Slice(c.listings, func(i, j int) bool {
		return c.listings[i].ID < c.listings[j].ID
	})

	return c
}

// Listings returns all listings in ID order. Callers must not mutate the
// returned slice.
func (c *Catalog) Listings() []model.Listing {
	return c.listings
}

// Get returns the listing with the given ID.
func (c *Catalog) Get(id int64) (model.Listing, bool) {
	listing, ok := c.byID[id]
	return listing, ok
}

// Len returns the number of listings.
func (c *Catalog) Len() int {
	return len(c.listings)
}

// Vector returns the embedding vector for a listing, if computed.
func (c *Catalog) Vector(id int64) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.vectors[id]
	return vec, ok
}

// SetVector stores the embedding vector for a listing.
func (c *Catalog) SetVector(id int64, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[id] = vec
}

// MissingVectors returns the listings that have no embedding vector yet,
// in ID order.
func (c *Catalog) MissingVectors() []model.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []model.Listing
	for _, listing := range c.listings {
		if _, ok := c.vectors[listing.ID]; !ok {
			missing = append(missing, listing)
		}
	}
	return missing
}
