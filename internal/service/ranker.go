package service

import (
	"sort"

	"github.com/can-karakoc/ai-marketplace-search/internal/model"
)

// Match reason constants
const (
	ReasonPriceWithinBudget = "Price within budget"
	ReasonAllAmenities      = "All requested amenities"
	ReasonAmenitiesMatch    = "Amenities match"
	ReasonLocationMatch     = "Location match"
	ReasonContentRelevant   = "Content relevant"
	ReasonGeneralMatch      = "General match"
)

// FusionWeights is the named rank-fusion configuration.
type FusionWeights struct {
	Similarity float64
	Amenity    float64
	Price      float64
}

// DefaultFusionWeights returns the similarity-dominant default weighting.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Similarity: 0.5, Amenity: 0.3, Price: 0.2}
}

// Candidate is one listing with its per-signal scores, ready for fusion.
// Listings excluded by the hard price filter never become candidates.
type Candidate struct {
	Listing    model.Listing
	Similarity float64
	Amenity    float64
	Price      float64
}

// AmenityOverlap scores the overlap between requested and listed amenity
// sets. Both inputs must already be canonical tags. Neutral 1.0 when
// nothing was requested; always within [0,1].
func AmenityOverlap(requested, listed []string) float64 {
	if len(requested) == 0 {
		return 1.0
	}

	have := make(map[string]bool, len(listed))
	for _, tag := range listed {
		have[tag] = true
	}

	matched := 0
	for _, tag := range requested {
		if have[tag] {
			matched++
		}
	}
	return float64(matched) / float64(len(requested))
}

// Ranker fuses per-signal scores into one deterministic ordering.
type Ranker struct {
	weights FusionWeights
}

// NewRanker creates a ranker with the given fusion weights.
func NewRanker(weights FusionWeights) *Ranker {
	return &Ranker{weights: weights}
}

// Fuse combines the similarity, amenity and price signals of each candidate
// into a final score and returns results sorted by final score descending,
// ties broken by listing ID ascending so identical inputs always produce
// identical orderings. Ranks are assigned 1-based after sorting.
func (r *Ranker) Fuse(candidates []Candidate, intent *model.QueryIntent) []model.ScoredResult {
	results := make([]model.ScoredResult, 0, len(candidates))

	for _, c := range candidates {
		result := model.ScoredResult{
			Listing:         c.Listing,
			SimilarityScore: c.Similarity,
			AmenityScore:    c.Amenity,
			PriceScore:      c.Price,
			FinalScore: r.weights.Similarity*c.Similarity +
				r.weights.Amenity*c.Amenity +
				r.weights.Price*c.Price,
		}
		result.MatchedReasons = r.matchedReasons(c, intent)
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].ID < results[j].ID
	})

	for i := range results {
		results[i].Rank = i + 1
	}

	return results
}

// matchedReasons generates human-readable reasons why a listing matched.
func (r *Ranker) matchedReasons(c Candidate, intent *model.QueryIntent) []string {
	reasons := []string{}

	if intent != nil {
		if intent.MaxPrice != nil && c.Listing.Price <= *intent.MaxPrice {
			reasons = append(reasons, ReasonPriceWithinBudget)
		}
		if len(intent.Amenities) > 0 {
			if c.Amenity >= 1.0 {
				reasons = append(reasons, ReasonAllAmenities)
			} else if c.Amenity > 0 {
				reasons = append(reasons, ReasonAmenitiesMatch)
			}
		}
		if intent.Location != nil {
			reasons = append(reasons, ReasonLocationMatch)
		}
	}

	if c.Similarity > 0.5 {
		reasons = append(reasons, ReasonContentRelevant)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}

	return reasons
}
