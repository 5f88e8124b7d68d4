package importer

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gxpseeker/guidance-harvester/pkg/catalog"
	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/extract"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

func testLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newImporter(t *testing.T, store catalog.Store, cfg config.ImportConfig) *Importer {
	t.Helper()
	im, err := New(store, cfg, testLog())
	require.NoError(t, err)
	return im
}

// writePriceList builds a minimal xlsx fixture with title/price columns.
func writePriceList(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "title"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "price"))
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportCreatesDocuments(t *testing.T) {
	store := catalog.NewMemStore()
	org, err := store.CreateOrg("ISPE")
	require.NoError(t, err)

	im := newImporter(t, store, config.ImportConfig{})
	b := &models.Batch{
		SourceID: extract.SourceISPE,
		Records: []models.DocumentRecord{
			{Title: "Baseline Guide Volume 5", Category: "GUIDE", PublishDate: "2025-06-01", ChineseTitle: "基准指南第5卷"},
			{Title: "Water and Steam Systems", Category: "GUIDE"},
		},
	}

	res, err := im.ImportBatch(b, "ISPE")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 0, res.Skipped)

	doc, err := store.GetDocumentByTitle(org.ID, "Baseline Guide Volume 5")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "2025-06-01", doc.PublishDate)
	assert.Equal(t, "基准指南第5卷", doc.ChineseTitle)
	assert.NotEmpty(t, doc.CategoryID)

	// Both records share one on-demand category.
	other, err := store.GetDocumentByTitle(org.ID, "Water and Steam Systems")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, doc.CategoryID, other.CategoryID)
}

func TestImportSkipsExistingWithoutUpsert(t *testing.T) {
	store := catalog.NewMemStore()
	org, err := store.CreateOrg("PDA")
	require.NoError(t, err)
	require.NoError(t, store.PutDocument(&models.Document{OrgID: org.ID, Title: "TR 29", PublishDate: "2012-01-01"}))

	im := newImporter(t, store, config.ImportConfig{})
	b := &models.Batch{Records: []models.DocumentRecord{{Title: "TR 29", PublishDate: "2024-05-01"}}}

	res, err := im.ImportBatch(b, "PDA")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Skipped)

	doc, err := store.GetDocumentByTitle(org.ID, "TR 29")
	require.NoError(t, err)
	assert.Equal(t, "2012-01-01", doc.PublishDate)
}

func TestImportUpsertMergesFields(t *testing.T) {
	store := catalog.NewMemStore()
	org, err := store.CreateOrg("WHO")
	require.NoError(t, err)
	require.NoError(t, store.PutDocument(&models.Document{
		OrgID:        org.ID,
		Title:        "Annex 4",
		ChineseTitle: "附件4",
		SourceURL:    "https://old.example/annex4",
	}))

	im := newImporter(t, store, config.ImportConfig{Upsert: true})
	b := &models.Batch{Records: []models.DocumentRecord{{
		Title:           "Annex 4",
		PublishDate:     "2022-05-04",
		ChineseTitle:    models.TranslationFailed,
		OriginalFileURL: "https://cdn.who.int/annex4.pdf",
	}}}

	res, err := im.ImportBatch(b, "WHO")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	doc, err := store.GetDocumentByTitle(org.ID, "Annex 4")
	require.NoError(t, err)
	assert.Equal(t, "2022-05-04", doc.PublishDate)
	assert.Equal(t, "https://cdn.who.int/annex4.pdf", doc.OriginalFileURL)
	// Failure marker does not clobber the stored translation, and empty batch
	// fields leave stored values alone.
	assert.Equal(t, "附件4", doc.ChineseTitle)
	assert.Equal(t, "https://old.example/annex4", doc.SourceURL)
}

func TestImportIdempotentUnderUpsert(t *testing.T) {
	store := catalog.NewMemStore()
	_, err := store.CreateOrg("APIC")
	require.NoError(t, err)

	im := newImporter(t, store, config.ImportConfig{Upsert: true})
	b := &models.Batch{Records: []models.DocumentRecord{
		{Title: "Cleaning Validation", Category: "APIC Publication"},
	}}

	res1, err := im.ImportBatch(b, "APIC")
	require.NoError(t, err)
	assert.Equal(t, 1, res1.Created)

	res2, err := im.ImportBatch(b, "APIC")
	require.NoError(t, err)
	assert.Equal(t, 0, res2.Created)
	assert.Equal(t, 1, res2.Updated)

	org, err := store.GetOrgByName("APIC")
	require.NoError(t, err)
	titles, err := store.TitleSet(org.ID)
	require.NoError(t, err)
	assert.Len(t, titles, 1)
}

func TestImportOrgAutoCreatePolicy(t *testing.T) {
	store := catalog.NewMemStore()
	im := newImporter(t, store, config.ImportConfig{AutoCreateOrgs: []string{"FDA Guidance"}})
	b := &models.Batch{Records: []models.DocumentRecord{{Title: "Some Guidance"}}}

	// Unknown org outside the auto-create set is an error.
	_, err := im.ImportBatch(b, "EMA")
	assert.ErrorIs(t, err, utils.ErrStore)

	// In-set org is created on first use.
	res, err := im.ImportBatch(b, "FDA Guidance")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	org, err := store.GetOrgByName("FDA Guidance")
	require.NoError(t, err)
	assert.NotNil(t, org)
}

func TestImportSkipsUntitledRecords(t *testing.T) {
	store := catalog.NewMemStore()
	_, err := store.CreateOrg("ISPE")
	require.NoError(t, err)

	im := newImporter(t, store, config.ImportConfig{})
	b := &models.Batch{Records: []models.DocumentRecord{{Title: ""}, {Title: "Real"}}}

	res, err := im.ImportBatch(b, "ISPE")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
}

func TestLoadPriceList(t *testing.T) {
	path := writePriceList(t, [][]any{
		{"Baseline Guide Volume 5", 199.0},
		{"  Water and Steam Systems  ", "149.50"},
		{"", 10.0},        // no title
		{"Bad Price", "n/a"}, // unparseable
	})

	prices, skipped, err := LoadPriceList(path)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)

	price, ok := prices.Lookup("baseline guide volume 5")
	assert.True(t, ok)
	assert.Equal(t, 199.0, price)

	price, ok = prices.Lookup("Water and Steam Systems")
	assert.True(t, ok)
	assert.Equal(t, 149.50, price)

	_, ok = prices.Lookup("Unknown")
	assert.False(t, ok)
}

func TestLoadPriceListMissing(t *testing.T) {
	_, _, err := LoadPriceList(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestImportAppliesPrices(t *testing.T) {
	path := writePriceList(t, [][]any{{"Baseline Guide Volume 5", 199.0}})

	store := catalog.NewMemStore()
	org, err := store.CreateOrg("ISPE")
	require.NoError(t, err)

	im := newImporter(t, store, config.ImportConfig{PriceListPath: path})
	b := &models.Batch{Records: []models.DocumentRecord{
		{Title: "Baseline Guide Volume 5"},
		{Title: "Unpriced Guide"},
	}}

	_, err = im.ImportBatch(b, "ISPE")
	require.NoError(t, err)

	priced, err := store.GetDocumentByTitle(org.ID, "Baseline Guide Volume 5")
	require.NoError(t, err)
	assert.Equal(t, 199.0, priced.Price)

	unpriced, err := store.GetDocumentByTitle(org.ID, "Unpriced Guide")
	require.NoError(t, err)
	assert.Equal(t, 0.0, unpriced.Price)
}
