package config

import "time"

// SourceConfig holds configuration specific to a single guidance source
type SourceConfig struct {
	OrgName      string            `yaml:"org_name"`                // catalog organization the batch belongs to
	BaseURL      string            `yaml:"base_url"`                // base for resolving relative links
	ListingURL   string            `yaml:"listing_url,omitempty"`   // single listing page (paginated sources append query params)
	ListingURLs  map[string]string `yaml:"listing_urls,omitempty"`  // category label -> listing page (WHO-style sources)
	SnapshotPath string            `yaml:"snapshot_path,omitempty"` // local HTML snapshot, consulted before the network
	SnapshotGlob string            `yaml:"snapshot_glob,omitempty"` // snapshot-only sources with multiple saved pages
	UserAgent    string            `yaml:"user_agent,omitempty"`
	PageSize     int               `yaml:"page_size,omitempty"`     // default rows per listing page when the page does not say
	FetchDetails bool              `yaml:"fetch_details"`           // resolve detail pages for records that need it
	DelayPerItem time.Duration     `yaml:"delay_per_item,omitempty"` // pause between per-item translation rounds
	PageDelay    time.Duration     `yaml:"page_delay,omitempty"`     // pause between listing page fetches
	DateHints    []string          `yaml:"date_hints,omitempty"`     // Go time layouts tried in order
}

// TranslatorConfig holds settings for the external translation service
type TranslatorConfig struct {
	Endpoint  string        `yaml:"endpoint,omitempty"`
	Model     string        `yaml:"model,omitempty"`
	APIKeyEnv string        `yaml:"api_key_env,omitempty"` // environment variable holding the credential
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// AssetConfig controls how cover-image URLs are recomposed from the page's
// thumbnail filename. Preference order: CDN > bucket direct URL > local static.
type AssetConfig struct {
	CDNURL         string `yaml:"cdn_url,omitempty"`
	BucketEndpoint string `yaml:"bucket_endpoint,omitempty"`
	BucketName     string `yaml:"bucket_name,omitempty"`
	StaticPrefix   string `yaml:"static_prefix,omitempty"`
}

// ImportConfig controls the batch import-merge step
type ImportConfig struct {
	AutoCreateOrgs []string `yaml:"auto_create_orgs,omitempty"` // orgs created on demand; others must pre-exist
	PriceListPath  string   `yaml:"price_list_path,omitempty"`  // optional xlsx mapping title -> price
	Upsert         bool     `yaml:"upsert,omitempty"`           // update non-empty fields of existing matches instead of skipping
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"`
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"` // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`
}

// AppConfig holds the global application configuration
type AppConfig struct {
	DefaultUserAgent   string                  `yaml:"default_user_agent"`
	DetailWorkers      int                     `yaml:"detail_workers,omitempty"` // bounded fan-out for detail-page fetches
	OutputDir          string                  `yaml:"output_dir"`               // batch CSVs land here
	StateDir           string                  `yaml:"state_dir"`                // catalog database directory
	RespectRobots      bool                    `yaml:"respect_robots,omitempty"`
	HTTPClientSettings HTTPClientConfig        `yaml:"http_client_settings,omitempty"`
	Translator         TranslatorConfig        `yaml:"translator,omitempty"`
	Assets             AssetConfig             `yaml:"assets,omitempty"`
	Import             ImportConfig            `yaml:"import,omitempty"`
	Sources            map[string]SourceConfig `yaml:"sources"`
}
