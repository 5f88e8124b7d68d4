package fetch

import (
	"context"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsGate checks robots.txt before detail-page fetches. Robots data is
// cached per host for the lifetime of the gate (one run). Unreachable or
// malformed robots.txt fails open: the crawl proceeds.
type RobotsGate struct {
	fetcher   *Fetcher
	userAgent string
	enabled   bool
	log       *logrus.Logger

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData // host -> parsed robots, nil entry = unavailable
}

// NewRobotsGate creates a RobotsGate. When enabled is false Allowed always
// returns true.
func NewRobotsGate(fetcher *Fetcher, userAgent string, enabled bool, log *logrus.Logger) *RobotsGate {
	return &RobotsGate{
		fetcher:   fetcher,
		userAgent: userAgent,
		enabled:   enabled,
		log:       log,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the URL may be fetched under the host's robots.txt.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	if g == nil || !g.enabled {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := g.robotsFor(ctx, u)
	if data == nil {
		return true
	}
	return data.FindGroup(g.userAgent).Test(u.Path)
}

func (g *RobotsGate) robotsFor(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	g.mu.Lock()
	data, seen := g.cache[u.Host]
	g.mu.Unlock()
	if seen {
		return data
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	body, err := g.fetcher.Get(ctx, robotsURL, g.userAgent)
	if err != nil {
		g.log.WithField("host", u.Host).Debugf("robots.txt unavailable, allowing: %v", err)
	} else if parsed, perr := robotstxt.FromString(body); perr != nil {
		g.log.WithField("host", u.Host).Debugf("robots.txt unparseable, allowing: %v", perr)
	} else {
		data = parsed
	}

	g.mu.Lock()
	g.cache[u.Host] = data
	g.mu.Unlock()
	return data
}
