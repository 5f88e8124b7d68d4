// Package importer merges crawl batches into the persistent catalog. Matching
// is by title within one organization; a batch never deletes catalog rows.
package importer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/catalog"
	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// Result tallies one batch import.
type Result struct {
	OrgName string
	Created int
	Updated int
	Skipped int
}

// Importer applies batches to a catalog store.
type Importer struct {
	store  catalog.Store
	cfg    config.ImportConfig
	prices PriceList
	log    *logrus.Logger
}

// New creates an Importer. The price list is loaded once up front when
// configured; a missing or malformed price list fails construction rather
// than silently importing zero prices.
func New(store catalog.Store, cfg config.ImportConfig, log *logrus.Logger) (*Importer, error) {
	im := &Importer{store: store, cfg: cfg, log: log}
	if cfg.PriceListPath != "" {
		prices, skipped, err := LoadPriceList(cfg.PriceListPath)
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			log.Warnf("Price list: skipped %d unusable rows", skipped)
		}
		log.Infof("Loaded %d price entries from %s", len(prices), cfg.PriceListPath)
		im.prices = prices
	}
	return im, nil
}

// ImportBatch merges the batch's records into the catalog under the given
// organization. The organization must already exist unless its name is in the
// auto-create set. Returns per-batch counts; the batch itself is not mutated.
func (im *Importer) ImportBatch(b *models.Batch, orgName string) (*Result, error) {
	org, err := im.resolveOrg(orgName)
	if err != nil {
		return nil, err
	}

	// The existing-title set is loaded once up front; a multi-hundred-row
	// batch must not cost one lookup per row just to discover it is old news.
	titles, err := im.store.TitleSet(org.ID)
	if err != nil {
		return nil, err
	}

	res := &Result{OrgName: org.Name}
	for i := range b.Records {
		rec := &b.Records[i]
		if rec.Title == "" {
			res.Skipped++
			continue
		}

		_, exists := titles[rec.Title]

		switch {
		case !exists:
			if err := im.createDocument(org.ID, rec); err != nil {
				return res, err
			}
			titles[rec.Title] = ""
			res.Created++
		case im.cfg.Upsert:
			existing, err := im.store.GetDocumentByTitle(org.ID, rec.Title)
			if err != nil {
				return res, err
			}
			if existing == nil {
				res.Skipped++
				continue
			}
			if err := im.updateDocument(org.ID, existing, rec); err != nil {
				return res, err
			}
			res.Updated++
		default:
			res.Skipped++
		}
	}

	im.log.WithFields(logrus.Fields{
		"org":     org.Name,
		"source":  b.SourceID,
		"created": res.Created,
		"updated": res.Updated,
		"skipped": res.Skipped,
	}).Info("Batch import complete")
	return res, nil
}

// resolveOrg looks the organization up by name, creating it only when the
// name is in the configured auto-create set.
func (im *Importer) resolveOrg(orgName string) (*models.Organization, error) {
	org, err := im.store.GetOrgByName(orgName)
	if err != nil {
		return nil, err
	}
	if org != nil {
		return org, nil
	}
	for _, allowed := range im.cfg.AutoCreateOrgs {
		if allowed == orgName {
			return im.store.CreateOrg(orgName)
		}
	}
	return nil, fmt.Errorf("%w: organization %q not found and not in auto-create set", utils.ErrStore, orgName)
}

func (im *Importer) categoryID(orgID, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	cat, err := im.store.GetOrCreateCategory(orgID, name)
	if err != nil {
		return "", err
	}
	return cat.ID, nil
}

func (im *Importer) createDocument(orgID string, rec *models.DocumentRecord) error {
	catID, err := im.categoryID(orgID, rec.Category)
	if err != nil {
		return err
	}
	doc := &models.Document{
		OrgID:           orgID,
		CategoryID:      catID,
		Title:           rec.Title,
		ChineseTitle:    rec.ChineseTitle,
		Summary:         rec.Summary,
		ChineseSummary:  rec.ChineseSummary,
		CoverURL:        rec.CoverURL,
		PublishDate:     rec.PublishDate,
		SourceURL:       rec.SourceURL,
		OriginalFileURL: rec.OriginalFileURL,
	}
	if price, ok := im.prices.Lookup(rec.Title); ok {
		doc.Price = price
	}
	return im.store.PutDocument(doc)
}

// updateDocument overwrites the existing document's fields with the batch's
// non-empty values. ID and any field the batch left empty survive, so a rerun
// never erases data a previous crawl captured.
func (im *Importer) updateDocument(orgID string, existing *models.Document, rec *models.DocumentRecord) error {
	if rec.Category != "" {
		catID, err := im.categoryID(orgID, rec.Category)
		if err != nil {
			return err
		}
		existing.CategoryID = catID
	}
	setIfTranslated(&existing.ChineseTitle, rec.ChineseTitle)
	setIfPresent(&existing.Summary, rec.Summary)
	setIfTranslated(&existing.ChineseSummary, rec.ChineseSummary)
	setIfPresent(&existing.CoverURL, rec.CoverURL)
	setIfPresent(&existing.PublishDate, rec.PublishDate)
	setIfPresent(&existing.SourceURL, rec.SourceURL)
	setIfPresent(&existing.OriginalFileURL, rec.OriginalFileURL)
	if price, ok := im.prices.Lookup(rec.Title); ok {
		existing.Price = price
	}
	return im.store.PutDocument(existing)
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// setIfTranslated is setIfPresent for translated fields: the failure marker
// never overwrites a translation a previous run captured.
func setIfTranslated(dst *string, value string) {
	if value == models.TranslationFailed && *dst != "" {
		return
	}
	setIfPresent(dst, value)
}
