package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// FDA extracts guidance documents from saved FDA guidance-search result
// tables. This source is harvested from local snapshots only; the listing
// exposes the file URL directly, so no detail resolution is needed.
type FDA struct {
	cfg config.SourceConfig
	log *logrus.Logger

	seen map[[2]string]bool // (title, file URL) pairs across the snapshot set
}

// NewFDA creates the FDA extractor. One instance should process the whole
// snapshot set so cross-file duplicates collapse to the first occurrence.
func NewFDA(cfg config.SourceConfig, log *logrus.Logger) *FDA {
	return &FDA{cfg: cfg, log: log, seen: make(map[[2]string]bool)}
}

// Extract parses one saved results table.
func (e *FDA) Extract(html string) ([]models.DocumentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: FDA listing HTML: %w", utils.ErrParsing, err)
	}

	table := doc.Find("table#DataTables_Table_0")
	if table.Length() == 0 {
		e.log.WithField("source", SourceFDA).Warn("Results table not found in snapshot")
		return nil, nil
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}

	var records []models.DocumentRecord
	rows.Each(func(i int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 3 {
			return
		}

		titleCell := cols.Eq(0)
		titleLink := titleCell.Find("a").First()
		title := CollapseWhitespace(titleLink.Text())
		if title == "" {
			title = CollapseWhitespace(titleCell.Text())
		}
		if title == "" {
			e.log.WithField("source", SourceFDA).Debugf("Skipping row %d: no title", i)
			return
		}
		sourceURL, _ := titleLink.Attr("href")
		fileURL, _ := cols.Eq(1).Find("a").First().Attr("href")

		key := [2]string{title, fileURL}
		if e.seen[key] {
			e.log.WithField("source", SourceFDA).Debugf("Skipping duplicate: %s", title)
			return
		}
		e.seen[key] = true

		records = append(records, models.DocumentRecord{
			Title:                   title,
			Category:                "FDA Guidance",
			SourceURL:               sourceURL,
			OriginalFileURL:         fileURL,
			OriginalPublishDateText: strings.TrimSpace(cols.Eq(2).Text()),
		})
	})
	return records, nil
}
