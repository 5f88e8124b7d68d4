// Package translate wraps the external machine-translation service behind a
// small capability interface so the pipeline can run against a fake in tests.
package translate

import (
	"context"
	"strings"
)

// Translator turns an English text into Chinese. Implementations may fail per
// call; callers isolate failures per field and never abort a batch over one.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Term is one glossary entry supplied to the service as a translation hint.
type Term struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// DefaultTerms is the domain glossary enforcing consistent terminology for
// pharmaceutical vocabulary.
var DefaultTerms = []Term{
	{Source: "good manufacturing practices", Target: "GMP"},
	{Source: "WHO", Target: "WHO"},
	{Source: "active pharmaceutical ingredients", Target: "原料药"},
}

// TrimSeriesPrefix rewrites a WHO technical-report-series title for
// translation: "TRS 1033: Annex 4" becomes "Annex 4". The stored title is
// never modified; only the text sent to the service. Titles without the
// prefix (or without a colon) pass through unchanged.
func TrimSeriesPrefix(title string) string {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(title)), "trs") {
		return title
	}
	idx := -1
	for _, colon := range []string{":", "："} {
		if i := strings.Index(title, colon); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	if idx < 0 {
		return title
	}
	rest := title[idx:]
	if strings.HasPrefix(rest, ":") {
		rest = rest[1:]
	} else {
		rest = strings.TrimPrefix(rest, "：")
	}
	return strings.TrimLeft(rest, " ")
}
