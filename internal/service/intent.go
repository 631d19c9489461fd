package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/can-karakoc/ai-marketplace-search/internal/model"
	"github.com/can-karakoc/ai-marketplace-search/internal/vocab"
)

// Confidence levels reported on extracted intents.
const (
	confidenceAI        = 0.95
	confidenceHeuristic = 0.35
)

// IntentExtractor parses free-text queries into a structured QueryIntent.
// The AI backend is tried first (with a single retry); any failure falls
// back to the local heuristic parser so a query never fails on extraction.
type IntentExtractor struct {
	ai    AIClient
	vocab *vocab.Vocabulary
}

// NewIntentExtractor creates a new intent extractor. ai may be nil, in
// which case only the heuristic parser is used.
func NewIntentExtractor(ai AIClient, v *vocab.Vocabulary) *IntentExtractor {
	return &IntentExtractor{
		ai:    ai,
		vocab: v,
	}
}

// Extract parses query into a QueryIntent. The caller guarantees query is
// non-empty; extraction itself never fails.
func (p *IntentExtractor) Extract(ctx context.Context, query string) *model.QueryIntent {
	query = strings.TrimSpace(query)

	if p.ai == nil || !p.ai.IsEnabled() {
		return p.extractHeuristic(query)
	}

	// At most one retry before falling back.
	var resp *AIIntentResponse
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err = p.ai.ExtractIntent(ctx, query)
		if err == nil {
			break
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("intent backend failed, using heuristic parser")
		intent := p.extractHeuristic(query)
		intent.Degraded = true
		return intent
	}

	intent := &model.QueryIntent{
		RawText:    query,
		Location:   resp.Location,
		MaxPrice:   resp.MaxPrice,
		Amenities:  p.vocab.NormalizeAll(resp.Amenities),
		Keywords:   resp.Keywords,
		Confidence: confidenceAI,
	}
	sanitizeIntent(intent)
	return intent
}

var (
	// "under $1500", "below 900", "max £2,000", "budget 1.2k"
	pricePattern = regexp.MustCompile(`(?i)(?:under|below|max|budget(?:\s+of)?|up\s+to)\s*[£€$]?\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*(k)?`)

	// "in London", "at the marina", "near downtown"
	locationPattern = regexp.MustCompile(`(?i)\b(?:in|at|near)\s+(?:the\s+)?([A-Za-z]+(?:\s+[A-Za-z]+)?)`)

	// words that terminate a captured location phrase
	locationStopwords = map[string]bool{
		"under": true, "below": true, "max": true, "budget": true,
		"with": true, "and": true, "for": true, "up": true,
	}
)

// extractHeuristic is the local rule-based fallback parser: regex price and
// location detection plus a vocabulary scan for amenities. It degrades
// precision but guarantees availability.
func (p *IntentExtractor) extractHeuristic(query string) *model.QueryIntent {
	intent := &model.QueryIntent{
		RawText:    query,
		Amenities:  p.vocab.Scan(query),
		Confidence: confidenceHeuristic,
	}

	if m := pricePattern.FindStringSubmatch(query); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		if price, err := strconv.ParseFloat(raw, 64); err == nil {
			if strings.EqualFold(m[2], "k") {
				price *= 1000
			}
			intent.MaxPrice = &price
		}
	}

	if m := locationPattern.FindStringSubmatch(query); m != nil {
		words := strings.Fields(m[1])
		var kept []string
		for _, w := range words {
			if locationStopwords[strings.ToLower(w)] {
				break
			}
			kept = append(kept, w)
		}
		if len(kept) > 0 {
			loc := strings.Join(kept, " ")
			intent.Location = &loc
		}
	}

	sanitizeIntent(intent)
	return intent
}

// sanitizeIntent enforces the QueryIntent invariants: a negative price is
// treated as absent (unbounded) and amenities are never nil.
func sanitizeIntent(intent *model.QueryIntent) {
	if intent.MaxPrice != nil && *intent.MaxPrice < 0 {
		intent.MaxPrice = nil
	}
	if intent.Amenities == nil {
		intent.Amenities = []string{}
	}
}
