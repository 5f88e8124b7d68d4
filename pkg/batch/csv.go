// Package batch persists crawl batches as CSV files. Each source has a fixed
// column order that downstream importers rely on, so the orders here are a
// stable contract rather than a presentation choice.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gxpseeker/guidance-harvester/pkg/extract"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// Column names shared across source layouts.
const (
	colTitle           = "title"
	colChineseTitle    = "chinese_title"
	colCategory        = "category"
	colPublishDate     = "publish_date"
	colOrigPublishDate = "original_publish_date"
	colSourceURL       = "source_url"
	colOrigFileURL     = "original_file_url"
	colCoverURL        = "cover_url"
	colSummary         = "summary"
	colChineseSummary  = "chinese_summary"
)

// sourceColumns fixes the per-source column order.
var sourceColumns = map[string][]string{
	extract.SourceISPE: {colCategory, colTitle, colChineseTitle, colPublishDate, colOrigPublishDate, colSourceURL, colCoverURL, colSummary, colChineseSummary},
	extract.SourcePDA:  {colTitle, colChineseTitle, colCategory, colOrigPublishDate, colPublishDate, colSourceURL, colCoverURL, colSummary, colChineseSummary},
	extract.SourceWHO:  {colTitle, colChineseTitle, colCategory, colOrigPublishDate, colPublishDate, colSummary, colChineseSummary, colOrigFileURL, colSourceURL},
	extract.SourceFDA:  {colTitle, colChineseTitle, colSourceURL, colOrigFileURL, colPublishDate, colCategory},
	extract.SourceAPIC: {colTitle, colChineseTitle, colCategory, colOrigPublishDate, colPublishDate, colSourceURL, colOrigFileURL, colSummary},
}

// Columns returns the CSV column order for a source.
func Columns(sourceID string) ([]string, error) {
	cols, ok := sourceColumns[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", utils.ErrUnknownSource, sourceID)
	}
	return cols, nil
}

func fieldValue(rec *models.DocumentRecord, col string) string {
	switch col {
	case colTitle:
		return rec.Title
	case colChineseTitle:
		return rec.ChineseTitle
	case colCategory:
		return rec.Category
	case colPublishDate:
		return rec.PublishDate
	case colOrigPublishDate:
		return rec.OriginalPublishDateText
	case colSourceURL:
		return rec.SourceURL
	case colOrigFileURL:
		return rec.OriginalFileURL
	case colCoverURL:
		return rec.CoverURL
	case colSummary:
		return rec.Summary
	case colChineseSummary:
		return rec.ChineseSummary
	}
	return ""
}

func setField(rec *models.DocumentRecord, col, value string) {
	switch col {
	case colTitle:
		rec.Title = value
	case colChineseTitle:
		rec.ChineseTitle = value
	case colCategory:
		rec.Category = value
	case colPublishDate:
		rec.PublishDate = value
	case colOrigPublishDate:
		rec.OriginalPublishDateText = value
	case colSourceURL:
		rec.SourceURL = value
	case colOrigFileURL:
		rec.OriginalFileURL = value
	case colCoverURL:
		rec.CoverURL = value
	case colSummary:
		rec.Summary = value
	case colChineseSummary:
		rec.ChineseSummary = value
	}
}

// Write emits the batch as CSV with the source's column order, header first.
func Write(w io.Writer, b *models.Batch) error {
	cols, err := Columns(b.SourceID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("%w: writing CSV header: %w", utils.ErrStore, err)
	}
	row := make([]string, len(cols))
	for i := range b.Records {
		for j, col := range cols {
			row[j] = fieldValue(&b.Records[i], col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: writing CSV row: %w", utils.ErrStore, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flushing CSV: %w", utils.ErrStore, err)
	}
	return nil
}

// Read parses a CSV previously written for the source. Columns are matched by
// header name, so files with reordered or extra columns still load.
func Read(r io.Reader, sourceID string) ([]models.DocumentRecord, error) {
	if _, err := Columns(sourceID); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %w", utils.ErrParsing, err)
	}

	var records []models.DocumentRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading CSV row: %w", utils.ErrParsing, err)
		}
		var rec models.DocumentRecord
		for i, col := range header {
			if i < len(row) {
				setField(&rec, col, row[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// OutputPath is the conventional batch file location for a source.
func OutputPath(dir, sourceID string) string {
	return filepath.Join(dir, sourceID+"_documents.csv")
}

// WriteFile writes the batch to its conventional location under dir, creating
// the directory if needed, and returns the path.
func WriteFile(dir string, b *models.Batch) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating output dir: %w", utils.ErrStore, err)
	}
	path := OutputPath(dir, b.SourceID)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", utils.ErrStore, path, err)
	}
	defer f.Close()

	if err := Write(f, b); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: closing %s: %w", utils.ErrStore, path, err)
	}
	return path, nil
}
