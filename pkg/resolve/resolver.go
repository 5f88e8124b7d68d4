// Package resolve fetches detail pages for records whose listing did not
// expose a final document URL, extracting the file link and any extra
// metadata the page carries. Failures are soft: a record that cannot be
// resolved keeps empty fields and the run continues.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/gxpseeker/guidance-harvester/pkg/fetch"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/parse"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// multiFileNote prefixes the operator-facing summary listing every candidate
// link when a detail page carries more than one document.
const multiFileNote = "本文档包含多个文件，请到详情页面下载："

// downloadKeywords is the anchor-text fallback used when no anchor matches a
// document extension outright.
var downloadKeywords = []string{"download", "pdf", "doc", "下载"}

// Result is what a detail page yields. Empty fields mean the page did not
// carry that datum (or the fetch failed).
type Result struct {
	FileURL  string
	Summary  string
	DateText string
}

// PageParser extracts a Result from a fetched detail page. Sources with
// bespoke detail markup supply their own; DocumentLinks is the generic one.
type PageParser func(doc *goquery.Document, pageURL string) Result

// Resolver fetches detail pages with a bounded worker pool and a run-scoped
// cache, so several records sharing one detail URL cost a single fetch.
type Resolver struct {
	fetcher   *fetch.Fetcher
	robots    *fetch.RobotsGate
	userAgent string
	workers   int64
	log       *logrus.Logger

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	res  Result
}

// NewResolver creates a Resolver. The cache lives as long as the Resolver;
// create one per run and let it go when the run ends.
func NewResolver(fetcher *fetch.Fetcher, robots *fetch.RobotsGate, userAgent string, workers int, log *logrus.Logger) *Resolver {
	if workers <= 0 {
		workers = 5
	}
	return &Resolver{
		fetcher:   fetcher,
		robots:    robots,
		userAgent: userAgent,
		workers:   int64(workers),
		log:       log,
		cache:     make(map[string]*cacheEntry),
	}
}

// ResolveAll enriches, in place, every record flagged NeedsDetail. Detail
// fetches fan out across the worker pool; each record's enrichment applies
// only to that record, so completion order does not matter. Returns the
// number of records left without detail data, counting both pages that
// yielded nothing and records never attempted after a cancellation.
func (r *Resolver) ResolveAll(ctx context.Context, records []models.DocumentRecord, parser PageParser) int {
	sem := semaphore.NewWeighted(r.workers)
	var wg sync.WaitGroup
	var unresolved atomic.Int64

	for i := range records {
		rec := &records[i]
		if !rec.NeedsDetail || rec.SourceURL == "" {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			r.log.WithField("error_category", utils.CategorizeError(err)).
				Warnf("Detail resolution canceled: %v", err)
			// Records never attempted still count as unresolved.
			for _, rest := range records[i:] {
				if rest.NeedsDetail && rest.SourceURL != "" {
					unresolved.Add(1)
				}
			}
			break
		}
		wg.Add(1)
		go func(rec *models.DocumentRecord) {
			defer wg.Done()
			defer sem.Release(1)
			res := r.Resolve(ctx, rec.SourceURL, parser)
			if res == (Result{}) {
				unresolved.Add(1)
			}
			r.apply(rec, res)
		}(rec)
	}
	wg.Wait()
	return int(unresolved.Load())
}

// Resolve fetches and parses one detail URL, consulting the cache first.
// Concurrent calls for the same URL share a single underlying fetch.
func (r *Resolver) Resolve(ctx context.Context, detailURL string, parser PageParser) Result {
	r.mu.Lock()
	entry, ok := r.cache[detailURL]
	if !ok {
		entry = &cacheEntry{}
		r.cache[detailURL] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.res = r.fetchAndParse(ctx, detailURL, parser)
	})
	return entry.res
}

func (r *Resolver) fetchAndParse(ctx context.Context, detailURL string, parser PageParser) Result {
	detailLog := r.log.WithField("detail_url", detailURL)

	if !r.robots.Allowed(ctx, detailURL) {
		detailLog.WithField("error_category", utils.CategorizeError(utils.ErrRobotsDisallowed)).
			Info("Detail page disallowed by robots.txt, skipping")
		return Result{}
	}

	html, err := r.fetcher.Get(ctx, detailURL, r.userAgent)
	if err != nil {
		detailLog.WithField("error_category", utils.CategorizeError(err)).
			Warnf("Detail fetch failed: %v", err)
		return Result{}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		err = fmt.Errorf("%w: HTML detail page: %v", utils.ErrParsing, err)
		detailLog.WithField("error_category", utils.CategorizeError(err)).
			Warnf("Detail parse failed: %v", err)
		return Result{}
	}
	return parser(doc, detailURL)
}

// apply copies the non-empty parts of a Result onto the record. The listing's
// own data wins for the file URL; detail data only fills the gap.
func (r *Resolver) apply(rec *models.DocumentRecord, res Result) {
	if res.FileURL != "" && rec.OriginalFileURL == "" {
		rec.OriginalFileURL = res.FileURL
	}
	if res.Summary != "" {
		rec.Summary = res.Summary
	}
	if res.DateText != "" {
		rec.OriginalPublishDateText = res.DateText
	}
}

// DocumentLinks is the generic detail parser: collect every anchor whose
// absolute href matches a document extension, fall back to download-keyword
// anchor text, dedup, and order PDF links first (alphabetical within each
// group). A single survivor becomes the file URL; multiple survivors keep the
// first and flag the ambiguity in the summary rather than dropping data.
func DocumentLinks(doc *goquery.Document, pageURL string) Result {
	var links []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := parse.Absolutize(href, pageURL)
		if parse.IsDocumentURL(abs) {
			links = append(links, abs)
		}
	})

	if len(links) == 0 {
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			text := strings.ToLower(a.Text())
			for _, kw := range downloadKeywords {
				if strings.Contains(text, kw) {
					href, _ := a.Attr("href")
					if abs := parse.Absolutize(href, pageURL); strings.HasPrefix(abs, "http") {
						links = append(links, abs)
					}
					break
				}
			}
		})
	}

	links = dedup(links)
	if len(links) == 0 {
		return Result{}
	}

	sort.SliceStable(links, func(i, j int) bool {
		pi, pj := parse.IsPDF(links[i]), parse.IsPDF(links[j])
		if pi != pj {
			return pi
		}
		return links[i] < links[j]
	})

	if len(links) == 1 {
		return Result{FileURL: links[0]}
	}
	return Result{
		FileURL: links[0],
		Summary: multiFileNote + strings.Join(links, "、"),
	}
}

func dedup(links []string) []string {
	seen := make(map[string]bool, len(links))
	var out []string
	for _, l := range links {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
