package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// PriceList maps normalized document titles to their sale price.
type PriceList map[string]float64

// normalizeTitle matches price-list entries to scraped titles regardless of
// casing and spacing differences between the spreadsheet and the site.
func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Lookup returns the price for a title and whether an entry exists.
func (p PriceList) Lookup(title string) (float64, bool) {
	price, ok := p[normalizeTitle(title)]
	return price, ok
}

// LoadPriceList reads an xlsx price list. The first sheet must carry a header
// row with "title" and "price" columns (any order, extra columns ignored).
// Rows with an empty title or an unparseable price are skipped with a count
// reported in the returned skipped value.
func LoadPriceList(path string) (prices PriceList, skipped int, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: opening price list %s: %w", utils.ErrStore, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("%w: price list %s has no sheets", utils.ErrParsing, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading price list %s: %w", utils.ErrParsing, path, err)
	}
	if len(rows) == 0 {
		return PriceList{}, 0, nil
	}

	titleCol, priceCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "title":
			titleCol = i
		case "price":
			priceCol = i
		}
	}
	if titleCol < 0 || priceCol < 0 {
		return nil, 0, fmt.Errorf("%w: price list %s missing title/price header", utils.ErrParsing, path)
	}

	prices = make(PriceList, len(rows)-1)
	for _, row := range rows[1:] {
		if titleCol >= len(row) || priceCol >= len(row) {
			skipped++
			continue
		}
		title := strings.TrimSpace(row[titleCol])
		if title == "" {
			skipped++
			continue
		}
		price, errConv := strconv.ParseFloat(strings.TrimSpace(row[priceCol]), 64)
		if errConv != nil {
			skipped++
			continue
		}
		prices[normalizeTitle(title)] = price
	}
	return prices, skipped, nil
}
