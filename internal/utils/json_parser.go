package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseAIJSON extracts and parses JSON from AI output that may be pure
// JSON, JSON wrapped in markdown code fences, JSON surrounded by prose, or
// JSON with common formatting mistakes (trailing commas, unquoted keys).
func ParseAIJSON(input string, target interface{}) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("empty input")
	}

	for _, candidate := range jsonCandidates(input) {
		if json.Unmarshal([]byte(candidate), target) == nil {
			return nil
		}
		if fixed := fixCommonMistakes(candidate); fixed != candidate {
			if json.Unmarshal([]byte(fixed), target) == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncate(input, 100))
}

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// jsonCandidates yields substrings of input worth attempting to parse, most
// likely first: the raw input, any code-fenced block, then the first
// balanced object or array found in the text.
func jsonCandidates(input string) []string {
	candidates := []string{strings.TrimSpace(input)}

	if m := codeFencePattern.FindStringSubmatch(input); len(m) > 1 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	for _, pair := range [][2]rune{{'{', '}'}, {'[', ']'}} {
		if start := strings.IndexRune(input, pair[0]); start >= 0 {
			if balanced := extractBalanced(input[start:], pair[0], pair[1]); balanced != "" {
				candidates = append(candidates, balanced)
			}
		}
	}

	return candidates
}

// extractBalanced returns the prefix of input spanning one balanced
// open/close pair, respecting string literals and escapes.
func extractBalanced(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false

	for i, ch := range input {
		switch {
		case escape:
			escape = false
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return input[:i+1]
			}
		}
	}

	return ""
}

var (
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyPattern   = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	controlCharPattern   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// fixCommonMistakes repairs the JSON errors models most often make:
// trailing commas, unquoted keys, a UTF-8 BOM and stray control characters.
func fixCommonMistakes(input string) string {
	s := strings.TrimPrefix(strings.TrimSpace(input), "\uFEFF")
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	s = unquotedKeyPattern.ReplaceAllString(s, `$1"$2"$3`)
	s = controlCharPattern.ReplaceAllString(s, "")
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
