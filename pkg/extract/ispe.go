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

// ISPE extracts guidance documents from the ISPE publications listing.
// Titles carry a "CATEGORY: Title" compound with registered-trademark glyphs
// sprinkled in, and the listing mixes translated editions in with the
// originals.
type ISPE struct {
	cfg    config.SourceConfig
	assets config.AssetConfig
	log    *logrus.Logger
}

// NewISPE creates the ISPE extractor.
func NewISPE(cfg config.SourceConfig, assets config.AssetConfig, log *logrus.Logger) *ISPE {
	return &ISPE{cfg: cfg, assets: assets, log: log}
}

// Extract parses the listing page into records. Translated editions are
// skipped unless they are the distinguished "English Translation" variant.
func (e *ISPE) Extract(html string) ([]models.DocumentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: ISPE listing HTML: %w", utils.ErrParsing, err)
	}

	var records []models.DocumentRecord
	doc.Find(".search__item").Each(func(i int, item *goquery.Selection) {
		full := CleanRegisteredMarks(item.Find(".hlFld-Title").Text())
		if full == "" {
			e.log.WithField("source", SourceISPE).Debugf("Skipping item %d: no title", i)
			return
		}
		category, title := SplitCategoryTitle(full, "ISPE")
		if title == "" {
			title = full
		}

		if strings.Contains(title, "Translation") && !strings.Contains(title, "English Translation") {
			e.log.WithField("source", SourceISPE).Debugf("Skipping translated edition: %s", title)
			return
		}

		sourceURL := ""
		if href, ok := item.Find(".meta__title a").Attr("href"); ok {
			sourceURL = parse.Absolutize(href, e.cfg.BaseURL)
		}

		dateText := strings.TrimSpace(strings.TrimPrefix(
			strings.TrimSpace(item.Find(".meta__coverDate").Text()), "Published:"))

		summary := CollapseWhitespace(item.Find(".accordion__content.card--shadow").Text())

		coverURL := ""
		if src, ok := item.Find(".item__image img").Attr("src"); ok && src != "" {
			parts := strings.Split(src, "/")
			coverURL = CoverURL(e.assets, SourceISPE, parts[len(parts)-1])
		}

		records = append(records, models.DocumentRecord{
			Title:                   title,
			Category:                category,
			SourceURL:               sourceURL,
			OriginalPublishDateText: dateText,
			Summary:                 summary,
			CoverURL:                coverURL,
		})
	})
	return records, nil
}
