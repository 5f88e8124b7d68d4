package extract

import (
	"regexp"
	"strings"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims the string and folds any whitespace run (including
// newlines) into a single space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// CleanRegisteredMarks removes registered-trademark glyphs from a title or
// category, collapsing the whitespace left behind.
func CleanRegisteredMarks(s string) string {
	return CollapseWhitespace(strings.ReplaceAll(s, "®", " "))
}

// SplitCategoryTitle splits a compound "CATEGORY: Title" string on the first
// colon (ASCII or full-width). The category prefix drops a redundant
// organization-name prefix like "ISPE" when present. Without a colon the
// whole string is the title and the category is empty.
func SplitCategoryTitle(full, orgPrefix string) (category, title string) {
	idx := indexColon(full)
	if idx < 0 {
		return "", strings.TrimSpace(full)
	}
	category = strings.TrimSpace(full[:idx])
	title = strings.TrimSpace(trimColon(full[idx:]))
	if orgPrefix != "" && strings.HasPrefix(category, orgPrefix) {
		category = strings.TrimSpace(strings.TrimPrefix(category, orgPrefix))
	}
	return category, title
}

// indexColon returns the byte index of the first ASCII or full-width colon,
// or -1.
func indexColon(s string) int {
	ascii := strings.Index(s, ":")
	wide := strings.Index(s, "：")
	switch {
	case ascii < 0:
		return wide
	case wide < 0:
		return ascii
	case ascii < wide:
		return ascii
	default:
		return wide
	}
}

// trimColon removes the single leading colon (either width) from s.
func trimColon(s string) string {
	if strings.HasPrefix(s, ":") {
		return s[1:]
	}
	return strings.TrimPrefix(s, "：")
}

// CoverURL recomposes a thumbnail filename against the configured asset base.
// Preference order: CDN, bucket direct URL, local static path.
func CoverURL(assets config.AssetConfig, sourceID, filename string) string {
	if filename == "" {
		return ""
	}
	rel := "thumbnails/" + sourceID + "/" + filename
	if assets.CDNURL != "" {
		return strings.TrimRight(assets.CDNURL, "/") + "/" + rel
	}
	if assets.BucketEndpoint != "" && assets.BucketName != "" {
		return strings.TrimRight(assets.BucketEndpoint, "/") + "/" + assets.BucketName + "/" + rel
	}
	prefix := assets.StaticPrefix
	if prefix == "" {
		prefix = "/static/images"
	}
	return strings.TrimRight(prefix, "/") + "/" + rel
}

// TrimQuotePair strips one symmetric pair of wrapping quotes from a summary.
func TrimQuotePair(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

var (
	totalPattern = regexp.MustCompile(`of\s+(\d+)`)
	rangePattern = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
)

// ParsePageInfo reads a "showing X - Y of N" style summary. Returns the total
// result count and the page size implied by the X–Y range. A missing total
// yields total=0; a missing range yields the provided default page size.
func ParsePageInfo(text string, defaultPerPage int) (total, perPage int) {
	perPage = defaultPerPage
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, perPage
	}
	total = atoi(m[1])

	if r := rangePattern.FindStringSubmatch(text); r != nil {
		lo, hi := atoi(r[1]), atoi(r[2])
		if hi >= lo {
			perPage = hi - lo + 1
		}
	}
	return total, perPage
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
