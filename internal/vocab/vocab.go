// Package vocab holds the canonical amenity vocabulary shared by intent
// extraction and amenity scoring. The vocabulary is built once at process
// start and is immutable afterwards; lookups are pure functions.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Vocabulary maps raw amenity tokens (case/whitespace/punctuation variants
// and synonyms) to one canonical tag.
type Vocabulary struct {
	synonyms  map[string]string // normalized variant -> canonical tag
	canonical []string          // sorted canonical tags
}

// New builds a vocabulary from a canonical-tag -> synonyms table. The
// canonical tag itself is always a valid variant.
func New(table map[string][]string) *Vocabulary {
	v := &Vocabulary{
		synonyms:  make(map[string]string),
		canonical: make([]string, 0, len(table)),
	}

	for tag, variants := range table {
		tag = normalizeToken(tag)
		if tag == "" {
			continue
		}
		v.canonical = append(v.canonical, tag)
		v.synonyms[tag] = tag
		for _, variant := range variants {
			variant = normalizeToken(variant)
			if variant != "" {
				v.synonyms[variant] = tag
			}
		}
	}
	sort.Strings(v.canonical)

	return v
}

// Default returns the built-in vocabulary for rental listings.
func Default() *Vocabulary {
	return New(map[string][]string{
		"hot tub":          {"jacuzzi", "spa", "hot-tub"},
		"wifi":             {"internet", "wireless"},
		"kitchen":          nil,
		"air conditioning": {"ac", "aircon", "a/c", "air conditioner"},
		"central heating":  {"heating"},
		"microwave":        nil,
		"washer":           {"washing machine", "laundry"},
		"dryer":            nil,
		"pets allowed":     {"pet friendly", "dog friendly", "pets"},
		"smoke alarm":      nil,
		"private entrance": nil,
		"bathtub":          {"bath tub"},
		"first aid kit":    nil,
		"accessible":       {"wheelchair", "step-free"},
		"balcony":          {"terrace", "patio", "private patio or balcony"},
		"gym":              {"fitness", "fitness center", "gymnasium"},
		"pool":             {"swimming pool", "swim"},
		"parking":          {"car park", "covered parking", "garage"},
		"wine glasses":     nil,
	})
}

// LoadFile reads a canonical-tag -> synonyms table from a JSON file.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var table map[string][]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("vocabulary file %s contains no entries", path)
	}

	return New(table), nil
}

// Normalize canonicalizes a raw amenity token. Unknown tokens return
// ok=false and are dropped by callers, never an error.
func (v *Vocabulary) Normalize(raw string) (string, bool) {
	tag, ok := v.synonyms[normalizeToken(raw)]
	return tag, ok
}

// NormalizeAll canonicalizes a token list, silently dropping unknown tokens
// and duplicates. The result is sorted for deterministic output.
func (v *Vocabulary) NormalizeAll(raws []string) []string {
	seen := make(map[string]bool, len(raws))
	tags := make([]string, 0, len(raws))
	for _, raw := range raws {
		tag, ok := v.Normalize(raw)
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Scan finds canonical tags whose name or synonyms appear as whole words in
// free text. Used by the heuristic intent parser.
func (v *Vocabulary) Scan(text string) []string {
	padded := " " + normalizeToken(text) + " "

	seen := make(map[string]bool)
	var tags []string
	for variant, tag := range v.synonyms {
		if seen[tag] {
			continue
		}
		if strings.Contains(padded, " "+variant+" ") {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// Canonical returns the sorted canonical tags.
func (v *Vocabulary) Canonical() []string {
	return v.canonical
}

// normalizeToken lower-cases a token, replaces punctuation with spaces and
// collapses whitespace, so "Hot-Tub" and "hot tub" normalize identically.
// The "/" is kept because variants like "a/c" use it.
func normalizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '/':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
