// Package pipeline drives one full source crawl: listing fetch, extraction,
// detail resolution, date normalization, translation, and batch assembly.
// Only a failed listing fetch aborts a run; every other failure degrades to
// missing data on the affected record.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/dates"
	"github.com/gxpseeker/guidance-harvester/pkg/extract"
	"github.com/gxpseeker/guidance-harvester/pkg/fetch"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/resolve"
	"github.com/gxpseeker/guidance-harvester/pkg/translate"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// Summary is the operator-facing tally for one run.
type Summary struct {
	Processed         int // records in the batch
	TranslatedOK      int // records whose every translated field succeeded
	TranslationFailed int // records with at least one failed field
	Skipped           int // records whose detail fetch yielded nothing
}

// Progress is an optional per-item observation hook; it is a side channel,
// not a correctness requirement.
type Progress func(done, total int, title string)

// Runner executes source runs against shared infrastructure. Translation is
// optional: a nil Translator skips that stage (records keep empty Chinese
// fields).
type Runner struct {
	appCfg     *config.AppConfig
	fetcher    *fetch.Fetcher
	robots     *fetch.RobotsGate
	limiter    *fetch.RateLimiter
	translator translate.Translator
	progress   Progress
	log        *logrus.Logger
}

// NewRunner creates a Runner.
func NewRunner(appCfg *config.AppConfig, fetcher *fetch.Fetcher, robots *fetch.RobotsGate, limiter *fetch.RateLimiter, translator translate.Translator, progress Progress, log *logrus.Logger) *Runner {
	return &Runner{
		appCfg:     appCfg,
		fetcher:    fetcher,
		robots:     robots,
		limiter:    limiter,
		translator: translator,
		progress:   progress,
		log:        log,
	}
}

// Run executes one full crawl of the given source and returns the enriched
// batch plus its summary.
func (r *Runner) Run(ctx context.Context, sourceID string) (*models.Batch, Summary, error) {
	srcCfg, ok := r.appCfg.Sources[sourceID]
	if !ok {
		return nil, Summary{}, fmt.Errorf("%w: %q", utils.ErrUnknownSource, sourceID)
	}

	runID := uuid.NewString()
	runLog := r.log.WithFields(logrus.Fields{"source": sourceID, "run_id": runID})
	runLog.Info("Starting source run")

	records, err := r.collect(ctx, sourceID, srcCfg, runLog)
	if err != nil {
		return nil, Summary{}, err
	}
	runLog.Infof("Extracted %d records", len(records))

	summary := Summary{Processed: len(records)}
	if srcCfg.FetchDetails {
		resolver := resolve.NewResolver(r.fetcher, r.robots, srcCfg.EffectiveUserAgent(*r.appCfg), r.appCfg.DetailWorkers, r.log)
		summary.Skipped = resolver.ResolveAll(ctx, records, detailParser(sourceID))
	}

	total := len(records)
	for i := range records {
		rec := &records[i]

		rec.PublishDate = dates.Normalize(rec.OriginalPublishDateText, srcCfg.DateHints)

		if r.translator != nil {
			if r.translateRecord(ctx, rec, runLog) {
				summary.TranslatedOK++
			} else {
				summary.TranslationFailed++
			}
			r.limiter.ApplyDelay("translator", srcCfg.DelayPerItem)
		}

		if r.progress != nil {
			r.progress(i+1, total, rec.Title)
		}
	}

	runLog.WithFields(logrus.Fields{
		"processed":          summary.Processed,
		"translated_ok":      summary.TranslatedOK,
		"translation_failed": summary.TranslationFailed,
		"skipped":            summary.Skipped,
	}).Info("Source run complete")

	return &models.Batch{RunID: runID, SourceID: sourceID, Records: records}, summary, nil
}

// collect fetches the source's listing page(s) and extracts raw records in
// page order.
func (r *Runner) collect(ctx context.Context, sourceID string, srcCfg config.SourceConfig, runLog *logrus.Entry) ([]models.DocumentRecord, error) {
	ua := srcCfg.EffectiveUserAgent(*r.appCfg)

	switch sourceID {
	case extract.SourcePDA:
		return r.collectPaginated(ctx, srcCfg, ua, runLog)
	case extract.SourceWHO:
		return r.collectCategories(ctx, srcCfg, ua, runLog)
	case extract.SourceFDA:
		return r.collectSnapshots(srcCfg, runLog)
	default:
		ex, err := extract.New(sourceID, srcCfg, r.appCfg.Assets, r.log)
		if err != nil {
			return nil, err
		}
		html, err := r.fetcher.Listing(ctx, srcCfg.ListingURL, srcCfg.SnapshotPath, ua)
		if err != nil {
			return nil, err
		}
		return ex.Extract(html)
	}
}

// collectPaginated walks a "showing X - Y of N" style listing until the total
// is covered, preserving page order.
func (r *Runner) collectPaginated(ctx context.Context, srcCfg config.SourceConfig, ua string, runLog *logrus.Entry) ([]models.DocumentRecord, error) {
	ex := extract.NewPDA(srcCfg, r.log)

	firstURL, err := pageURL(srcCfg.ListingURL, 0, srcCfg.PageSize)
	if err != nil {
		return nil, err
	}
	html, err := r.fetcher.Listing(ctx, firstURL, srcCfg.SnapshotPath, ua)
	if err != nil {
		return nil, err
	}

	total, perPage := ex.PageInfo(html)
	all, err := ex.Extract(html)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		total = len(all)
	}
	if perPage <= 0 {
		perPage = srcCfg.PageSize
	}
	if perPage <= 0 {
		// Callers that skip SourceConfig.Validate leave PageSize zero.
		perPage = 20
	}

	totalPages := (total + perPage - 1) / perPage
	runLog.Infof("Paginating: %d results, %d per page, %d pages", total, perPage, totalPages)

	for page := 1; page < totalPages; page++ {
		r.limiter.ApplyDelay(hostOf(srcCfg.ListingURL), srcCfg.PageDelay)

		u, err := pageURL(srcCfg.ListingURL, page*perPage, perPage)
		if err != nil {
			return nil, err
		}
		pageHTML, err := r.fetcher.Listing(ctx, u, "", ua)
		if err != nil {
			return nil, err
		}
		recs, err := ex.Extract(pageHTML)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// collectCategories walks the configured per-category listing URLs in stable
// order, tagging each page's records with that category.
func (r *Runner) collectCategories(ctx context.Context, srcCfg config.SourceConfig, ua string, runLog *logrus.Entry) ([]models.DocumentRecord, error) {
	categories := make([]string, 0, len(srcCfg.ListingURLs))
	for c := range srcCfg.ListingURLs {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var all []models.DocumentRecord
	for _, category := range categories {
		listingURL := srcCfg.ListingURLs[category]
		runLog.Infof("Fetching category %q", category)
		r.limiter.ApplyDelay(hostOf(listingURL), srcCfg.PageDelay)

		html, err := r.fetcher.Listing(ctx, listingURL, "", ua)
		if err != nil {
			return nil, err
		}
		recs, err := extract.NewWHO(srcCfg, category, r.log).Extract(html)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// collectSnapshots processes a snapshot-only source: every saved listing page
// goes through one extractor instance so cross-file dedup holds.
func (r *Runner) collectSnapshots(srcCfg config.SourceConfig, runLog *logrus.Entry) ([]models.DocumentRecord, error) {
	snaps, err := r.fetcher.Snapshots(srcCfg.SnapshotGlob)
	if err != nil {
		return nil, err
	}
	ex := extract.NewFDA(srcCfg, r.log)

	var all []models.DocumentRecord
	for _, snap := range snaps {
		runLog.Infof("Processing snapshot %s", snap.Path)
		recs, err := ex.Extract(snap.HTML)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// translateRecord fills the Chinese fields, isolating failures per field.
// Returns true when every attempted field succeeded.
func (r *Runner) translateRecord(ctx context.Context, rec *models.DocumentRecord, runLog *logrus.Entry) bool {
	ok := true

	translated, err := r.translator.Translate(ctx, translate.TrimSeriesPrefix(rec.Title))
	if err != nil {
		runLog.WithFields(logrus.Fields{
			"title":          rec.Title,
			"error_category": utils.CategorizeError(err),
		}).Warnf("Title translation failed: %v", err)
		rec.ChineseTitle = models.TranslationFailed
		ok = false
	} else {
		rec.ChineseTitle = translated
	}

	if rec.Summary != "" {
		translated, err := r.translator.Translate(ctx, rec.Summary)
		if err != nil {
			runLog.WithFields(logrus.Fields{
				"title":          rec.Title,
				"error_category": utils.CategorizeError(err),
			}).Warnf("Summary translation failed: %v", err)
			rec.ChineseSummary = models.TranslationFailed
			ok = false
		} else {
			rec.ChineseSummary = translated
		}
	}
	return ok
}

// detailParser picks the detail-page parser for a source. Sources with
// bespoke detail markup get their own; the rest use generic document-link
// discovery.
func detailParser(sourceID string) resolve.PageParser {
	switch sourceID {
	case extract.SourceWHO:
		return extract.ParseWHODetail
	case extract.SourcePDA:
		return extract.ParsePDADetail
	default:
		return resolve.DocumentLinks
	}
}

// pageURL rebuilds the listing URL with pagination query parameters.
func pageURL(listingURL string, startRow, rowsPerPage int) (string, error) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("%w: listing URL %q: %w", utils.ErrParsing, listingURL, err)
	}
	q := u.Query()
	q.Set("startRow", strconv.Itoa(startRow))
	q.Set("rowsPerPage", strconv.Itoa(rowsPerPage))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
