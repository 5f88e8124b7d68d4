package config

import (
	"fmt"
	"time"

	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	if c.DefaultUserAgent == "" {
		warnings = append(warnings, "default_user_agent is empty, using a browser-like default")
		c.DefaultUserAgent = fallbackUserAgent
	}

	if c.DetailWorkers <= 0 {
		warnings = append(warnings, "detail_workers should be > 0, defaulting to 5")
		c.DetailWorkers = 5
	}

	if c.OutputDir == "" {
		warnings = append(warnings, "output_dir is empty, defaulting to './data'")
		c.OutputDir = "./data"
	}

	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './catalog_state'")
		c.StateDir = "./catalog_state"
	}

	c.validateHTTPClientSettings()
	c.validateTranslator(&warnings)

	if len(c.Sources) == 0 {
		return warnings, fmt.Errorf("%w: no sources configured", utils.ErrConfigValidation)
	}

	return warnings, nil
}

func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 10
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

func (c *AppConfig) validateTranslator(warnings *[]string) {
	t := &c.Translator
	if t.Endpoint == "" {
		t.Endpoint = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	}
	if t.Model == "" {
		t.Model = "qwen-mt-turbo"
	}
	if t.APIKeyEnv == "" {
		*warnings = append(*warnings, "translator.api_key_env is empty, defaulting to TRANSLATOR_API_KEY")
		t.APIKeyEnv = "TRANSLATOR_API_KEY"
	}
	if t.Timeout <= 0 {
		t.Timeout = 20 * time.Second
	}
}

// Validate checks a single source configuration.
// Returns warnings and a fatal error when the source cannot be crawled at all.
func (s *SourceConfig) Validate() (warnings []string, err error) {
	if s.OrgName == "" {
		return nil, fmt.Errorf("%w: org_name is required", utils.ErrConfigValidation)
	}
	if s.ListingURL == "" && len(s.ListingURLs) == 0 && s.SnapshotPath == "" && s.SnapshotGlob == "" {
		return nil, fmt.Errorf("%w: source needs a listing_url, listing_urls, or snapshot", utils.ErrConfigValidation)
	}
	if s.PageSize <= 0 {
		s.PageSize = 20
	}
	if s.DelayPerItem <= 0 {
		s.DelayPerItem = 200 * time.Millisecond
	}
	if s.PageDelay < 0 {
		warnings = append(warnings, "page_delay cannot be negative, setting to 0")
		s.PageDelay = 0
	}
	return warnings, nil
}

// EffectiveUserAgent returns the source's user agent, falling back to the
// application default.
func (s SourceConfig) EffectiveUserAgent(app AppConfig) string {
	if s.UserAgent != "" {
		return s.UserAgent
	}
	return app.DefaultUserAgent
}
