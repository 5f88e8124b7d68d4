package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/parse"
	"github.com/gxpseeker/guidance-harvester/pkg/resolve"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// WHO extracts pharmaceutical guidelines from the WHO norms-and-standards
// pages. Each configured listing URL is one category; the category label
// comes from configuration, not the page. File URLs and summaries live on the
// per-guideline detail pages.
type WHO struct {
	cfg      config.SourceConfig
	category string
	log      *logrus.Logger
}

// NewWHO creates a WHO extractor for one category listing page.
func NewWHO(cfg config.SourceConfig, category string, log *logrus.Logger) *WHO {
	return &WHO{cfg: cfg, category: category, log: log}
}

// Extract parses one category listing. Every record needs a detail fetch.
func (e *WHO) Extract(html string) ([]models.DocumentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: WHO listing HTML: %w", utils.ErrParsing, err)
	}

	var records []models.DocumentRecord
	doc.Find("a.sf-meeting-report-list__item").Each(func(i int, item *goquery.Selection) {
		title := CollapseWhitespace(item.Find(".trimmed").Text())
		if title == "" {
			e.log.WithField("source", SourceWHO).Debugf("Skipping item %d: no title", i)
			return
		}

		sourceURL := ""
		if href, ok := item.Attr("href"); ok {
			sourceURL = parse.Absolutize(href, e.cfg.BaseURL)
		}

		records = append(records, models.DocumentRecord{
			Title:                   title,
			Category:                e.category,
			SourceURL:               sourceURL,
			OriginalPublishDateText: strings.TrimSpace(item.Find(".timestamp").Text()),
			NeedsDetail:             true,
		})
	})
	return records, nil
}

// ParseWHODetail reads a guideline detail page: the download button carries
// the file URL and the first heading's following paragraph is the abstract.
func ParseWHODetail(doc *goquery.Document, pageURL string) resolve.Result {
	var res resolve.Result

	if href, ok := doc.Find(".button-blue-background a").First().Attr("href"); ok {
		res.FileURL = parse.Absolutize(href, pageURL)
	}

	if p := doc.Find("h3").First().NextFiltered("p"); p.Length() > 0 {
		res.Summary = TrimQuotePair(CollapseWhitespace(p.Text()))
	}
	return res
}
