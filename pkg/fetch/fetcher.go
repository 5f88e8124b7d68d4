package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// Fetcher retrieves listing and detail pages. Retry policy lives with the
// caller; a single attempt per URL is made here.
type Fetcher struct {
	client *http.Client
	log    *logrus.Logger
}

// NewFetcher creates a Fetcher backed by the shared HTTP client.
func NewFetcher(client *http.Client, log *logrus.Logger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// Snapshot is a locally saved listing page.
type Snapshot struct {
	Path string
	HTML string
}

// Listing returns the HTML for a listing page. A configured local snapshot is
// consulted first; the network is the fallback. When neither yields content
// the returned error wraps utils.ErrFetch and the source's run must abort.
func (f *Fetcher) Listing(ctx context.Context, url, snapshotPath, userAgent string) (string, error) {
	if snapshotPath != "" {
		data, err := os.ReadFile(snapshotPath)
		if err == nil {
			f.log.WithField("path", snapshotPath).Info("Loaded listing from local snapshot")
			return string(data), nil
		}
		f.log.WithField("path", snapshotPath).Debugf("Snapshot not readable: %v", err)
	}

	if url == "" {
		return "", fmt.Errorf("%w: no listing URL and snapshot %q unreadable", utils.ErrFetch, snapshotPath)
	}

	html, err := f.Get(ctx, url, userAgent)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrFetch, err)
	}
	return html, nil
}

// Get performs a single GET and returns the response body as text.
// Non-2xx statuses are returned as categorized errors.
func (f *Fetcher) Get(ctx context.Context, url, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: URL %q: %w", utils.ErrParsing, url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		switch {
		case resp.StatusCode >= 500:
			return "", fmt.Errorf("%w: status %s for %s", utils.ErrServerHTTPError, resp.Status, url)
		case resp.StatusCode >= 400:
			return "", fmt.Errorf("%w: status %s for %s", utils.ErrClientHTTPError, resp.Status, url)
		default:
			return "", fmt.Errorf("%w: status %s for %s", utils.ErrOtherHTTPError, resp.Status, url)
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", url, err)
	}
	return string(body), nil
}

// Snapshots loads all saved pages matching the glob, in path order. Used by
// snapshot-only sources that were harvested as a set of saved HTML files.
func (f *Fetcher) Snapshots(glob string) ([]Snapshot, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("%w: bad snapshot glob %q: %w", utils.ErrConfigValidation, glob, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no snapshots match %q", utils.ErrFetch, glob)
	}
	sort.Strings(paths)

	snaps := make([]Snapshot, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: read snapshot %s: %w", utils.ErrFetch, p, err)
		}
		snaps = append(snaps, Snapshot{Path: p, HTML: string(data)})
	}
	return snaps, nil
}
