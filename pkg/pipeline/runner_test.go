package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/extract"
	"github.com/gxpseeker/guidance-harvester/pkg/fetch"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

func testLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeTranslator prefixes translations deterministically; fail makes every
// call error.
type fakeTranslator struct{ fail bool }

func (f fakeTranslator) Translate(_ context.Context, text string) (string, error) {
	if f.fail {
		return "", fmt.Errorf("%w: service unavailable", utils.ErrTranslation)
	}
	return "中文·" + text, nil
}

func newRunner(t *testing.T, appCfg *config.AppConfig, client *http.Client, translator fakeTranslator) *Runner {
	t.Helper()
	fetcher := fetch.NewFetcher(client, testLog())
	limiter := fetch.NewRateLimiter(0, testLog())
	return NewRunner(appCfg, fetcher, nil, limiter, translator, nil, testLog())
}

func appConfigWith(sourceID string, srcCfg config.SourceConfig) *config.AppConfig {
	return &config.AppConfig{
		DetailWorkers: 3,
		Sources:       map[string]config.SourceConfig{sourceID: srcCfg},
	}
}

func TestRunUnknownSource(t *testing.T) {
	runner := newRunner(t, appConfigWith("ispe", config.SourceConfig{}), http.DefaultClient, fakeTranslator{})
	_, _, err := runner.Run(context.Background(), "ema")
	assert.ErrorIs(t, err, utils.ErrUnknownSource)
}

func TestRunISPEFromSnapshot(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "ispe.html")
	require.NoError(t, os.WriteFile(snapshot, []byte(`
		<div class="search__item">
		  <h5 class="hlFld-Title">ISPE GUIDE: Baseline Guide Volume 5</h5>
		  <div class="meta__title"><a href="/products/bg5">View</a></div>
		  <span class="meta__coverDate">Published: June 2025</span>
		  <div class="accordion__content card--shadow">Practices.</div>
		</div>`), 0o644))

	appCfg := appConfigWith(extract.SourceISPE, config.SourceConfig{
		BaseURL:      "https://ispe.org",
		SnapshotPath: snapshot,
	})
	runner := newRunner(t, appCfg, http.DefaultClient, fakeTranslator{})

	b, summary, err := runner.Run(context.Background(), extract.SourceISPE)
	require.NoError(t, err)
	require.Len(t, b.Records, 1)
	assert.NotEmpty(t, b.RunID)
	assert.Equal(t, extract.SourceISPE, b.SourceID)

	rec := b.Records[0]
	assert.Equal(t, "Baseline Guide Volume 5", rec.Title)
	assert.Equal(t, "2025-06-01", rec.PublishDate)
	assert.Equal(t, "中文·Baseline Guide Volume 5", rec.ChineseTitle)
	assert.Equal(t, "中文·Practices.", rec.ChineseSummary)

	assert.Equal(t, Summary{Processed: 1, TranslatedOK: 1}, summary)
}

func TestRunPDAPaginationAndDetails(t *testing.T) {
	item := func(id string) string {
		return fmt.Sprintf(`
			<li class="item-list__item">
			  <a class="item-list__link" href="/detail/%s"><h4 class="item-list__title">Report %s</h4></a>
			</li>`, id, id)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/bookstore", func(w http.ResponseWriter, r *http.Request) {
		var items string
		switch r.URL.Query().Get("startRow") {
		case "0":
			items = item("a1") + item("a2")
		case "2":
			items = item("b1")
		default:
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<div class="overview">Showing 1 - 2 of 3 results</div><ul class="item-list">%s</ul>`, items)
	})
	mux.HandleFunc("/detail/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<dl><div><dt>Published</dt><dd>May 2024</dd></div></dl>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	appCfg := appConfigWith(extract.SourcePDA, config.SourceConfig{
		BaseURL:      srv.URL,
		ListingURL:   srv.URL + "/bookstore?Keywords=technical",
		PageSize:     2,
		FetchDetails: true,
		DateHints:    []string{"January 2006"},
	})
	runner := newRunner(t, appCfg, srv.Client(), fakeTranslator{})

	b, summary, err := runner.Run(context.Background(), extract.SourcePDA)
	require.NoError(t, err)
	require.Len(t, b.Records, 3)
	assert.Equal(t, 3, summary.Processed)

	for _, rec := range b.Records {
		assert.Equal(t, "May 2024", rec.OriginalPublishDateText)
		assert.Equal(t, "2024-05-01", rec.PublishDate)
	}
	assert.Equal(t, "Report b1", b.Records[2].Title)
}

func TestRunPDAWithoutPageInfoOrPageSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<ul class="item-list"><li class="item-list__item">
			<a class="item-list__link" href="/detail/x"><h4 class="item-list__title">Report X</h4></a>
		</li></ul>`)
	}))
	defer srv.Close()

	// PageSize unset and no "Showing X - Y of N" text on the page; the run
	// still completes on a single page.
	appCfg := appConfigWith(extract.SourcePDA, config.SourceConfig{
		BaseURL:    srv.URL,
		ListingURL: srv.URL + "/bookstore",
	})
	runner := newRunner(t, appCfg, srv.Client(), fakeTranslator{})

	b, summary, err := runner.Run(context.Background(), extract.SourcePDA)
	require.NoError(t, err)
	require.Len(t, b.Records, 1)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "Report X", b.Records[0].Title)
}

func TestRunWHOCategoriesWithDetails(t *testing.T) {
	mux := http.NewServeMux()
	listing := func(id string) string {
		return fmt.Sprintf(`
			<a class="sf-meeting-report-list__item" href="/item/%s">
			  <span class="trimmed">Guideline %s</span>
			  <span class="timestamp">4 May 2022</span>
			</a>`, id, id)
	}
	mux.HandleFunc("/production", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listing("prod"))
	})
	mux.HandleFunc("/distribution", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listing("dist"))
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `
			<h3>Overview</h3><p>Summary for %s</p>
			<div class="button-blue-background"><a href="/files%s.pdf">Download</a></div>`,
			r.URL.Path, r.URL.Path)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	appCfg := appConfigWith(extract.SourceWHO, config.SourceConfig{
		BaseURL: srv.URL,
		ListingURLs: map[string]string{
			"Production":   srv.URL + "/production",
			"Distribution": srv.URL + "/distribution",
		},
		FetchDetails: true,
	})
	runner := newRunner(t, appCfg, srv.Client(), fakeTranslator{})

	b, summary, err := runner.Run(context.Background(), extract.SourceWHO)
	require.NoError(t, err)
	require.Len(t, b.Records, 2)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)

	// Categories iterate in sorted order.
	assert.Equal(t, "Distribution", b.Records[0].Category)
	assert.Equal(t, "Production", b.Records[1].Category)

	first := b.Records[0]
	assert.Equal(t, srv.URL+"/files/item/dist.pdf", first.OriginalFileURL)
	assert.Equal(t, "Summary for /item/dist", first.Summary)
	assert.Equal(t, "2022-05-04", first.PublishDate)
}

func TestRunFDASnapshots(t *testing.T) {
	dir := t.TempDir()
	row := `<tr><td><a href="/g1">Guidance One</a></td><td><a href="/g1.pdf">dl</a></td><td>07/27/2015</td></tr>`
	table := `<table id="DataTables_Table_0"><tbody>` + row + `</tbody></table>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page1.html"), []byte(table), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page2.html"), []byte(table), 0o644))

	appCfg := appConfigWith(extract.SourceFDA, config.SourceConfig{
		SnapshotGlob: filepath.Join(dir, "*.html"),
		DateHints:    []string{"01/02/2006"},
	})
	runner := newRunner(t, appCfg, http.DefaultClient, fakeTranslator{})

	b, summary, err := runner.Run(context.Background(), extract.SourceFDA)
	require.NoError(t, err)

	// Identical rows across snapshots collapse to one record.
	require.Len(t, b.Records, 1)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "Guidance One", b.Records[0].Title)
	assert.Equal(t, "2015-07-27", b.Records[0].PublishDate)
}

func TestRunTranslationFailureUsesMarker(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "ispe.html")
	require.NoError(t, os.WriteFile(snapshot, []byte(`
		<div class="search__item">
		  <h5 class="hlFld-Title">GUIDE: Some Guide</h5>
		  <div class="meta__title"><a href="/products/sg">View</a></div>
		  <div class="accordion__content card--shadow">Text.</div>
		</div>`), 0o644))

	log := testLog()
	hook := logtest.NewLocal(log)

	appCfg := appConfigWith(extract.SourceISPE, config.SourceConfig{SnapshotPath: snapshot})
	fetcher := fetch.NewFetcher(http.DefaultClient, log)
	limiter := fetch.NewRateLimiter(0, log)
	runner := NewRunner(appCfg, fetcher, nil, limiter, fakeTranslator{fail: true}, nil, log)

	b, summary, err := runner.Run(context.Background(), extract.SourceISPE)
	require.NoError(t, err)
	require.Len(t, b.Records, 1)

	assert.Equal(t, models.TranslationFailed, b.Records[0].ChineseTitle)
	assert.Equal(t, models.TranslationFailed, b.Records[0].ChineseSummary)
	assert.Equal(t, Summary{Processed: 1, TranslationFailed: 1}, summary)

	var categories []string
	for _, entry := range hook.AllEntries() {
		if c, ok := entry.Data["error_category"].(string); ok {
			categories = append(categories, c)
		}
	}
	assert.Contains(t, categories, "Translation_Failed")
}

func TestRunListingFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	appCfg := appConfigWith(extract.SourceAPIC, config.SourceConfig{ListingURL: srv.URL})
	runner := newRunner(t, appCfg, srv.Client(), fakeTranslator{})

	_, _, err := runner.Run(context.Background(), extract.SourceAPIC)
	assert.ErrorIs(t, err, utils.ErrFetch)
}

func TestRunProgressCallback(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "ispe.html")
	require.NoError(t, os.WriteFile(snapshot, []byte(strings.Repeat(`
		<div class="search__item">
		  <h5 class="hlFld-Title">GUIDE: Guide</h5>
		  <div class="meta__title"><a href="/p">View</a></div>
		</div>`, 3)), 0o644))

	var calls []int
	appCfg := appConfigWith(extract.SourceISPE, config.SourceConfig{SnapshotPath: snapshot})
	fetcher := fetch.NewFetcher(http.DefaultClient, testLog())
	limiter := fetch.NewRateLimiter(0, testLog())
	runner := NewRunner(appCfg, fetcher, nil, limiter, nil, func(done, total int, title string) {
		assert.Equal(t, 3, total)
		assert.Equal(t, "Guide", title)
		calls = append(calls, done)
	}, testLog())

	b, summary, err := runner.Run(context.Background(), extract.SourceISPE)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, calls)
	require.Len(t, b.Records, 3)

	// nil translator leaves the Chinese fields empty and counts nothing.
	assert.Empty(t, b.Records[0].ChineseTitle)
	assert.Equal(t, Summary{Processed: 3}, summary)
}
