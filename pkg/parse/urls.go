// Package parse holds pure URL helpers shared by the extractors and the
// detail resolver.
package parse

import (
	"net/url"
	"path"
	"strings"
)

// documentExtensions is the fixed set of file extensions considered a
// downloadable document (as opposed to another HTML page).
var documentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
	".txt":  true,
	".rtf":  true,
}

// IsDocumentURL reports whether the URL path ends in a known document
// extension. HTML pages and malformed URLs return false.
func IsDocumentURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return documentExtensions[ext]
}

// IsPDF reports whether the URL path ends in ".pdf".
func IsPDF(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// Absolutize resolves href against base. Already-absolute links pass through;
// unresolvable input returns the href unchanged.
func Absolutize(href, base string) string {
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
