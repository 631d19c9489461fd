package service

import "fmt"

// PricePolicy names how listings over the extracted budget are treated.
type PricePolicy string

const (
	// PricePolicyHard excludes listings priced above the budget entirely.
	// This is the default: once a budget is given, infeasible listings
	// should not silently appear in results.
	PricePolicyHard PricePolicy = "hard"

	// PricePolicySoft keeps over-budget listings but applies a continuous
	// penalty proportional to the overage fraction.
	PricePolicySoft PricePolicy = "soft"
)

// ParsePricePolicy parses a configured policy name.
func ParsePricePolicy(s string) (PricePolicy, error) {
	switch PricePolicy(s) {
	case PricePolicyHard, PricePolicySoft:
		return PricePolicy(s), nil
	default:
		return "", fmt.Errorf("invalid price policy %q, must be %q or %q", s, PricePolicyHard, PricePolicySoft)
	}
}

// PriceScorer filters or scores listing prices against the extracted budget.
type PriceScorer struct {
	policy PricePolicy
}

// NewPriceScorer creates a price scorer with the given policy.
func NewPriceScorer(policy PricePolicy) *PriceScorer {
	return &PriceScorer{policy: policy}
}

// Policy returns the active policy.
func (s *PriceScorer) Policy() PricePolicy {
	return s.policy
}

// Excludes reports whether a listing must be dropped before fusion. Only
// the hard policy excludes; with no budget nothing is excluded.
func (s *PriceScorer) Excludes(maxPrice *float64, price float64) bool {
	return s.policy == PricePolicyHard && maxPrice != nil && price > *maxPrice
}

// Score returns the price signal in [0,1]. Neutral 1.0 when no budget was
// extracted. Under the soft policy an over-budget listing is penalized by
// its overage fraction, clamped to [0,1].
func (s *PriceScorer) Score(maxPrice *float64, price float64) float64 {
	if maxPrice == nil || price <= *maxPrice {
		return 1.0
	}
	if s.policy == PricePolicyHard {
		// Hard-filtered listings never reach scoring; defined for safety.
		return 0
	}

	if *maxPrice <= 0 {
		return 0
	}
	overage := (price - *maxPrice) / *maxPrice
	if overage > 1 {
		overage = 1
	}
	return 1 - overage
}
