// Package dates converts the free-text publish dates found on source pages
// into canonical "YYYY-MM-DD" strings. Parsing is best-effort and never
// errors: an empty result means the date is unknown, which is a normal
// outcome for several sources.
package dates

import (
	"regexp"
	"strings"
	"time"
)

// DefaultHints covers the formats seen across all sources, tried in order.
// Per-source configuration can narrow or reorder these.
var DefaultHints = []string{
	"2 January 2006",
	"January 2006",
	"Jan 2006",
	"02/01/2006",
	"01/02/2006",
	"01/02/06",
	"2006",
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// Normalize parses raw against the hint layouts in order and returns the date
// as "YYYY-MM-DD", or "" when nothing matches. Month-only and year-only
// layouts normalize to the first day of their period. As a last resort a bare
// 4-digit year anywhere in the text maps to January 1 of that year.
func Normalize(raw string, hints []string) string {
	cleaned := clean(raw)
	if cleaned == "" {
		return ""
	}
	if len(hints) == 0 {
		hints = DefaultHints
	}

	for _, layout := range hints {
		t, err := time.Parse(layout, cleaned)
		if err != nil {
			continue
		}
		return t.Format("2006-01-02")
	}

	if m := yearPattern.FindString(cleaned); m != "" {
		return m + "-01-01"
	}
	return ""
}

// clean strips non-breaking spaces and collapses runs of whitespace; source
// pages mix NBSP into otherwise plain dates.
func clean(raw string) string {
	s := strings.ReplaceAll(raw, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}
