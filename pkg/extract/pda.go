package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/parse"
	"github.com/gxpseeker/guidance-harvester/pkg/resolve"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

var (
	pdaSingleUserPattern = regexp.MustCompile(`(?i)\(?single user digital version\)?`)
	pdaTechReportPattern = regexp.MustCompile(`(?i)^(PDA\s+)?Technical\s+Report`)
	pdaCoverTailPattern  = regexp.MustCompile(`(?i)\.jpe?g(\?.*)?$`)
	pdaPublishedPattern  = regexp.MustCompile(`Published\s*:?\s*([A-Za-z]{3,9}\s+\d{4})`)
)

// PDA extracts technical reports from the PDA bookstore search listing.
// The listing is paginated and does not expose publish dates; those live on
// each report's detail page.
type PDA struct {
	cfg config.SourceConfig
	log *logrus.Logger
}

// NewPDA creates the PDA extractor.
func NewPDA(cfg config.SourceConfig, log *logrus.Logger) *PDA {
	return &PDA{cfg: cfg, log: log}
}

// Extract parses one listing page. Every record needs a detail fetch for its
// publish date.
func (e *PDA) Extract(html string) ([]models.DocumentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: PDA listing HTML: %w", utils.ErrParsing, err)
	}

	var records []models.DocumentRecord
	doc.Find("ul.item-list > li.item-list__item").Each(func(i int, item *goquery.Selection) {
		link := item.Find("a.item-list__link")
		href, ok := link.Attr("href")
		if !ok {
			e.log.WithField("source", SourcePDA).Debugf("Skipping item %d: no link", i)
			return
		}
		sourceURL := parse.Absolutize(href, e.cfg.BaseURL)

		title := CleanTechnicalReportTitle(link.Find("h4.item-list__title").Text())
		if title == "" {
			e.log.WithField("source", SourcePDA).Debugf("Skipping item %d: no title", i)
			return
		}

		category := strings.TrimSpace(item.Find("div.item-list__tags > span.pill--tertiary").Text())
		summary := CollapseWhitespace(item.Find("div.item-list__description > div").Text())

		coverURL := ""
		if src, ok := item.Find(".search-thumbnail").Attr("src"); ok && src != "" {
			coverURL = pdaCoverTailPattern.ReplaceAllString(src, "")
		}

		records = append(records, models.DocumentRecord{
			Title:       title,
			Category:    category,
			SourceURL:   sourceURL,
			Summary:     summary,
			CoverURL:    coverURL,
			NeedsDetail: true,
		})
	})
	return records, nil
}

// PageInfo reads the listing's "Showing X - Y of N" overview so the caller
// can page through the full result set.
func (e *PDA) PageInfo(html string) (total, perPage int) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, e.cfg.PageSize
	}
	return ParsePageInfo(doc.Find(".overview").Text(), e.cfg.PageSize)
}

// CleanTechnicalReportTitle normalizes a PDA bookstore title: the single-user
// edition suffix is dropped and a leading "PDA Technical Report" becomes the
// "TR" shorthand used in the catalog.
func CleanTechnicalReportTitle(title string) string {
	title = pdaSingleUserPattern.ReplaceAllString(title, "")
	title = pdaTechReportPattern.ReplaceAllString(title, "TR")
	return CollapseWhitespace(title)
}

// ParsePDADetail pulls the publish date text out of a report's detail page:
// the product-facts card first, then a page-wide "Published: Month YYYY"
// scan as a fallback.
func ParsePDADetail(doc *goquery.Document, pageURL string) resolve.Result {
	dd := doc.Find("dl div:first-child dd").First()
	if text := strings.TrimSpace(dd.Text()); text != "" {
		return resolve.Result{DateText: text}
	}
	if m := pdaPublishedPattern.FindStringSubmatch(doc.Text()); m != nil {
		return resolve.Result{DateText: m[1]}
	}
	return resolve.Result{}
}
