package models

// TranslationFailed is the sentinel stored in chinese_title / chinese_summary
// when the translation service errored for that field. Downstream consumers
// distinguish it from "" (never attempted / empty input).
const TranslationFailed = "翻译失败"

// DocumentRecord is the unit produced by a source extractor for one listing
// item. It is enriched in place by the later pipeline stages (detail
// resolution, date normalization, translation) and discarded after the batch
// is serialized.
type DocumentRecord struct {
	Title                   string // natural dedup key, always present
	Category                string
	SourceURL               string // human-readable detail/listing page
	OriginalFileURL         string // downloadable document, may arrive via detail resolution
	OriginalPublishDateText string // free text as found on the page
	PublishDate             string // canonical "YYYY-MM-DD", "" when unknown
	Summary                 string
	CoverURL                string
	ChineseTitle            string
	ChineseSummary          string
	NeedsDetail             bool // listing did not expose the file URL; a detail fetch is required
}

// Batch is the serializable result of one source run.
type Batch struct {
	RunID    string
	SourceID string
	Records  []DocumentRecord
}

// Organization is a persisted catalog organization.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is a persisted catalog category, scoped to one organization.
type Category struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

// Document is a persisted catalog document.
type Document struct {
	ID              string  `json:"id"`
	OrgID           string  `json:"org_id"`
	CategoryID      string  `json:"category_id,omitempty"`
	Title           string  `json:"title"`
	ChineseTitle    string  `json:"chinese_title,omitempty"`
	Summary         string  `json:"summary,omitempty"`
	ChineseSummary  string  `json:"chinese_summary,omitempty"`
	CoverURL        string  `json:"cover_url,omitempty"`
	PublishDate     string  `json:"publish_date,omitempty"`
	SourceURL       string  `json:"source_url,omitempty"`
	OriginalFileURL string  `json:"original_file_url,omitempty"`
	Price           float64 `json:"price"`
}
