package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/parse"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// APIC extracts publications from the APIC publications listing. The item's
// action link is sometimes the document itself and sometimes another HTML
// page; classification decides whether a detail fetch is needed.
type APIC struct {
	cfg config.SourceConfig
	log *logrus.Logger
}

// NewAPIC creates the APIC extractor.
func NewAPIC(cfg config.SourceConfig, log *logrus.Logger) *APIC {
	return &APIC{cfg: cfg, log: log}
}

// Extract parses the publications listing.
func (e *APIC) Extract(html string) ([]models.DocumentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: APIC listing HTML: %w", utils.ErrParsing, err)
	}

	var records []models.DocumentRecord
	doc.Find(".list-item.publication").Each(func(i int, item *goquery.Selection) {
		titleLink := item.Find(".list-title a").First()
		title := CollapseWhitespace(titleLink.Text())
		if title == "" {
			e.log.WithField("source", SourceAPIC).Debugf("Skipping item %d: no title", i)
			return
		}

		sourceURL := ""
		if href, ok := titleLink.Attr("href"); ok {
			sourceURL = parse.Absolutize(href, e.cfg.BaseURL)
		}

		downloadLink := ""
		if href, ok := item.Find(".links .list-read-more").First().Attr("href"); ok {
			downloadLink = parse.Absolutize(href, e.cfg.BaseURL)
		}

		rec := models.DocumentRecord{
			Title:                   title,
			Category:                "APIC Publication",
			SourceURL:               sourceURL,
			OriginalPublishDateText: strings.TrimSpace(item.Find(".list-date").Text()),
		}

		// A direct file link ends resolution here; an HTML action link
		// replaces the source URL and defers to the detail resolver.
		switch {
		case parse.IsDocumentURL(downloadLink):
			rec.OriginalFileURL = downloadLink
		case downloadLink != "":
			rec.SourceURL = downloadLink
			rec.NeedsDetail = true
		}

		records = append(records, rec)
	})
	return records, nil
}
