// internal/config/types.go

// Package config provides configuration types and loading for ofertaradar.
// It defines the per-source scraping targets and selector cascades, retry and
// pacing behavior, cache settings, and output locations.
package config

import (
	"time"

	"github.com/ofertaradar/ofertaradar/internal/deals"
)

// Config is the root configuration for the service.
type Config struct {
	// Name identifies this configuration
	Name string `yaml:"name" json:"name"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Server settings for the HTTP API
	Server ServerConfig `yaml:"server" json:"server"`

	// Search settings for the coordinator and aggregation engine
	Search SearchConfig `yaml:"search" json:"search"`

	// Client settings for outbound HTTP
	Client ClientConfig `yaml:"client" json:"client"`

	// Retry policy shared by fetching and link resolution
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Resolver settings for recovering merchant URLs from indirection links
	Resolver ResolverConfig `yaml:"resolver" json:"resolver"`

	// Sources to scrape, in priority order
	Sources []SourceConfig `yaml:"sources" json:"sources"`

	// ChallengeMarkers are body substrings that indicate a bot wall
	ChallengeMarkers []string `yaml:"challenge_markers" json:"challenge_markers"`

	// Storage settings for persisted results
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Diagnostics settings for raw-body capture
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" json:"diagnostics"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Address string `yaml:"address" json:"address"`
}

// SearchConfig controls the coordinator and aggregation engine.
type SearchConfig struct {
	// CacheTTL is how long a cached result stays valid
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`

	// MaxResultsPerSource caps candidates accepted from one source
	MaxResultsPerSource int `yaml:"max_results_per_source" json:"max_results_per_source"`

	// SourceTimeout bounds one source's whole fetch; a source exceeding it
	// is treated as having returned no candidates
	SourceTimeout time.Duration `yaml:"source_timeout" json:"source_timeout"`
}

// ClientConfig controls outbound HTTP behavior.
type ClientConfig struct {
	Timeout    time.Duration     `yaml:"timeout" json:"timeout"`
	UserAgents []string          `yaml:"user_agents,omitempty" json:"user_agents,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// RateLimit is the sustained request rate in requests per second
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" json:"rate_burst"`

	// MinDelay/MaxDelay bound the randomized human-like pause before each request
	MinDelay time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay"`
}

// RetryConfig defines the shared retry policy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// ResolverConfig controls indirection-link resolution.
type ResolverConfig struct {
	// EngineHost is the search engine's own host; resolved URLs landing back
	// on it are not considered an improvement
	EngineHost string `yaml:"engine_host" json:"engine_host"`

	// RedirectPaths are path fragments that mark redirect endpoints worth probing
	RedirectPaths []string `yaml:"redirect_paths" json:"redirect_paths"`

	// Params are query parameter names checked for the destination URL,
	// in priority order
	Params []string `yaml:"params" json:"params"`

	// ProbeTimeout bounds the redirect-following HEAD probe
	ProbeTimeout time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
}

// SourceConfig describes one upstream source: where to fetch and how to
// locate product entries in its markup. Selector lists are ordered fallback
// chains evaluated first-match-wins, so markup drift is absorbed by
// configuration instead of code.
type SourceConfig struct {
	ID       deals.SourceID `yaml:"id" json:"id"`
	Label    string         `yaml:"label" json:"label"`
	Origin   string         `yaml:"origin" json:"origin"`
	RenderJS bool           `yaml:"render_js,omitempty" json:"render_js,omitempty"`

	// Targets are candidate request URLs tried in order; "{query}" is
	// replaced with the escaped search term
	Targets []string `yaml:"targets" json:"targets"`

	// ContainerSelectors locate product entries; the first selector matching
	// at least one element is used for the whole document
	ContainerSelectors []string `yaml:"container_selectors" json:"container_selectors"`

	// Per-field selector cascades within a matched container
	NameSelectors  []string `yaml:"name_selectors" json:"name_selectors"`
	PriceSelectors []string `yaml:"price_selectors" json:"price_selectors"`
	LinkSelectors  []string `yaml:"link_selectors" json:"link_selectors"`

	// CentsSelectors, when set, locate a separate cents element whose text
	// is appended to the integer price with a comma (some marketplaces split
	// the amount across two nodes)
	CentsSelectors []string `yaml:"cents_selectors,omitempty" json:"cents_selectors,omitempty"`

	// CartLinkTemplate builds an add-to-cart link from the product link;
	// "{link}" is replaced with the product URL. Empty means identity.
	CartLinkTemplate string `yaml:"cart_link_template,omitempty" json:"cart_link_template,omitempty"`
}

// StorageConfig controls result persistence.
type StorageConfig struct {
	ResultsDir  string `yaml:"results_dir" json:"results_dir"`
	HistoryDB   string `yaml:"history_db" json:"history_db"`
	RecentLimit int    `yaml:"recent_limit" json:"recent_limit"`
}

// DiagnosticsConfig controls raw-body capture on extraction failure.
type DiagnosticsConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}
