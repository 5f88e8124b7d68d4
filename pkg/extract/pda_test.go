package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
)

const pdaListing = `
<div class="overview">Showing 1 - 2 of 37 results</div>
<ul class="item-list">
  <li class="item-list__item">
    <a class="item-list__link" href="/bookstore/product-detail/tr-90">
      <h4 class="item-list__title">PDA Technical Report No. 90 (Single User Digital Version)</h4>
    </a>
    <div class="item-list__tags"><span class="pill--tertiary">Technical Report</span></div>
    <div class="item-list__description"><div>Contamination control strategy.</div></div>
    <img class="search-thumbnail" src="https://www.pda.org/img/tr90.jpg?sfvrsn=2">
  </li>
  <li class="item-list__item">
    <a class="item-list__link" href="/bookstore/product-detail/glossary">
      <h4 class="item-list__title">Aseptic Processing Glossary</h4>
    </a>
  </li>
  <li class="item-list__item"><span>no link here</span></li>
</ul>
`

func TestPDAExtract(t *testing.T) {
	cfg := config.SourceConfig{BaseURL: "https://www.pda.org", PageSize: 20}
	records, err := NewPDA(cfg, testLog()).Extract(pdaListing)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "TR No. 90", first.Title)
	assert.Equal(t, "Technical Report", first.Category)
	assert.Equal(t, "https://www.pda.org/bookstore/product-detail/tr-90", first.SourceURL)
	assert.Equal(t, "Contamination control strategy.", first.Summary)
	assert.Equal(t, "https://www.pda.org/img/tr90", first.CoverURL)
	assert.True(t, first.NeedsDetail)

	assert.Equal(t, "Aseptic Processing Glossary", records[1].Title)
	assert.True(t, records[1].NeedsDetail)
}

func TestPDAPageInfo(t *testing.T) {
	cfg := config.SourceConfig{PageSize: 20}
	e := NewPDA(cfg, testLog())

	total, perPage := e.PageInfo(pdaListing)
	assert.Equal(t, 37, total)
	assert.Equal(t, 2, perPage)

	total, perPage = e.PageInfo("<div></div>")
	assert.Equal(t, 0, total)
	assert.Equal(t, 20, perPage)
}

func TestCleanTechnicalReportTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"PDA Technical Report No. 90 (Single User Digital Version)", "TR No. 90"},
		{"Technical Report No. 13", "TR No. 13"},
		{"Points to Consider single user digital version", "Points to Consider"},
		{"Plain Title", "Plain Title"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CleanTechnicalReportTitle(tc.in))
	}
}

func TestParsePDADetail(t *testing.T) {
	t.Run("product facts card", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
			<dl><div><dt>Published</dt><dd> May 2024 </dd></div><div><dt>Pages</dt><dd>120</dd></div></dl>`))
		require.NoError(t, err)
		res := ParsePDADetail(doc, "https://www.pda.org/bookstore/product-detail/tr-90")
		assert.Equal(t, "May 2024", res.DateText)
	})

	t.Run("page text fallback", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
			<p>This report was Published: March 2019 by the association.</p>`))
		require.NoError(t, err)
		res := ParsePDADetail(doc, "")
		assert.Equal(t, "March 2019", res.DateText)
	})

	t.Run("nothing found", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<p>no date here</p>`))
		require.NoError(t, err)
		assert.Empty(t, ParsePDADetail(doc, "").DateText)
	})
}
