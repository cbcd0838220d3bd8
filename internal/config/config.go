// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ofertaradar/ofertaradar/internal/deals"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %v", err)
	}

	return LoadFromBytes(data)
}

// Default returns the built-in configuration covering the three reference
// sources. It is used when no configuration file is supplied.
func Default() *Config {
	cfg := &Config{
		Name:    "ofertaradar",
		Sources: DefaultSources(),
	}
	applyDefaults(cfg)
	return cfg
}

// DefaultSources returns the built-in source definitions with their
// selector cascades.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			ID:     deals.SourceGoogleShopping,
			Label:  "Google Shopping",
			Origin: "https://www.google.com",
			Targets: []string{
				"https://www.google.com/search?q={query}&tbm=shop",
				"https://www.google.com.br/search?q={query}&tbm=shop&hl=pt-BR&gl=br",
				"https://www.google.com/search?q={query}&tbm=shop&source=lnms&sa=X",
			},
			ContainerSelectors: []string{
				"div.sh-dgr__content",
				"div.sh-dlr__list-result",
				"div.sh-pr__product-results-grid div.sh-pr__product-result",
				"div[data-docid]",
				".i0X6df",
				".u30d4",
			},
			NameSelectors:  []string{"h3.tAxDx", "h4.A2sOrd", "div.aULzUe", "h3", ".rgHvZc", ".EI11Pd"},
			PriceSelectors: []string{"span.a8Pemb", "span.kHxwFf", `span[aria-hidden="true"]`, ".PZPZlf span", ".HRLxBb"},
			LinkSelectors:  []string{"a.shntl", "a.Lq5OHe", `a[href*="shopping"]`, "a"},
		},
		{
			ID:     deals.SourceMercadoLivre,
			Label:  "Mercado Livre",
			Origin: "https://lista.mercadolivre.com.br",
			Targets: []string{
				"https://lista.mercadolivre.com.br/{query}",
			},
			ContainerSelectors: []string{
				"li.ui-search-layout__item",
				"div.ui-search-result__wrapper",
			},
			NameSelectors:  []string{"h2.ui-search-item__title", "a.poly-component__title", "h2"},
			PriceSelectors: []string{"span.andes-money-amount__fraction", "span.price-tag-fraction", ".andes-money-amount"},
			CentsSelectors: []string{"span.andes-money-amount__cents", "span.price-tag-cents"},
			LinkSelectors:  []string{"a.ui-search-link", "a.poly-component__title", "a"},
		},
		{
			ID:     deals.SourceKabum,
			Label:  "Kabum",
			Origin: "https://www.kabum.com.br",
			Targets: []string{
				"https://www.kabum.com.br/busca/{query}",
			},
			ContainerSelectors: []string{
				"div.productCard",
				"article.productCard",
			},
			NameSelectors:  []string{"span.nameCard", "h2"},
			PriceSelectors: []string{"span.priceCard", ".priceCard"},
			LinkSelectors:  []string{"a.productLink", "a"},
		},
	}
}

// applyDefaults fills in missing configuration values.
func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "ofertaradar"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Search.CacheTTL <= 0 {
		cfg.Search.CacheTTL = 5 * time.Minute
	}
	if cfg.Search.MaxResultsPerSource <= 0 {
		cfg.Search.MaxResultsPerSource = 5
	}
	if cfg.Search.SourceTimeout <= 0 {
		cfg.Search.SourceTimeout = 90 * time.Second
	}
	if cfg.Client.Timeout <= 0 {
		cfg.Client.Timeout = 15 * time.Second
	}
	if cfg.Client.RateLimit <= 0 {
		cfg.Client.RateLimit = 1.0
	}
	if cfg.Client.RateBurst <= 0 {
		cfg.Client.RateBurst = 3
	}
	if cfg.Client.MinDelay <= 0 {
		cfg.Client.MinDelay = time.Second
	}
	if cfg.Client.MaxDelay <= 0 {
		cfg.Client.MaxDelay = 3 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = 3 * time.Second
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Resolver.EngineHost == "" {
		cfg.Resolver.EngineHost = "google.com"
	}
	if len(cfg.Resolver.RedirectPaths) == 0 {
		cfg.Resolver.RedirectPaths = []string{"/url", "/aclk"}
	}
	if len(cfg.Resolver.Params) == 0 {
		cfg.Resolver.Params = []string{"adurl", "url", "q", "imgrefurl"}
	}
	if cfg.Resolver.ProbeTimeout <= 0 {
		cfg.Resolver.ProbeTimeout = 5 * time.Second
	}
	if len(cfg.ChallengeMarkers) == 0 {
		cfg.ChallengeMarkers = []string{
			"Our systems have detected unusual traffic",
			"recaptcha",
			"hcaptcha",
			"captcha-delivery",
			"checking your browser",
		}
	}
	if cfg.Storage.ResultsDir == "" {
		cfg.Storage.ResultsDir = "results"
	}
	if cfg.Storage.HistoryDB == "" {
		cfg.Storage.HistoryDB = "results/history.db"
	}
	if cfg.Storage.RecentLimit <= 0 {
		cfg.Storage.RecentLimit = 10
	}
	if cfg.Diagnostics.Dir == "" {
		cfg.Diagnostics.Dir = ".logs/html_errors"
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	seen := make(map[deals.SourceID]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("source %d: id cannot be empty", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("source %d: duplicate id %q", i, src.ID)
		}
		seen[src.ID] = true

		if src.Label == "" {
			return fmt.Errorf("source %q: label cannot be empty", src.ID)
		}
		if len(src.Targets) == 0 {
			return fmt.Errorf("source %q: at least one target URL is required", src.ID)
		}
		for _, target := range src.Targets {
			if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
				return fmt.Errorf("source %q: target %q must be an absolute URL", src.ID, target)
			}
		}
		if len(src.ContainerSelectors) == 0 {
			return fmt.Errorf("source %q: at least one container selector is required", src.ID)
		}
		if len(src.NameSelectors) == 0 || len(src.PriceSelectors) == 0 {
			return fmt.Errorf("source %q: name and price selector cascades are required", src.ID)
		}
	}

	if c.Client.MinDelay > c.Client.MaxDelay {
		return fmt.Errorf("client min_delay %v exceeds max_delay %v", c.Client.MinDelay, c.Client.MaxDelay)
	}
	if c.Retry.BaseDelay > c.Retry.MaxDelay {
		return fmt.Errorf("retry base_delay %v exceeds max_delay %v", c.Retry.BaseDelay, c.Retry.MaxDelay)
	}

	return nil
}

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvironmentVariables substitutes ${VAR} references with environment
// values. Unset variables expand to the empty string.
func expandEnvironmentVariables(data string) string {
	return envVarRe.ReplaceAllStringFunc(data, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
