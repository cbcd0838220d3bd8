// internal/scraper/links.go
package scraper

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ofertaradar/ofertaradar/internal/config"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// HeadProber issues a redirect-following HEAD request and reports the final
// URL. Satisfied by *HTTPClient.
type HeadProber interface {
	Head(ctx context.Context, targetURL string, timeout time.Duration) (*url.URL, error)
}

// LinkResolver recovers the true merchant URL from a search-engine
// indirection link. Resolution failure is not an error: the original link is
// a degraded but valid fallback, since it still reaches the offer through
// the engine's redirect.
type LinkResolver struct {
	prober HeadProber
	cfg    config.ResolverConfig
	logger utils.Logger
}

// NewLinkResolver creates a resolver using the given probe transport.
func NewLinkResolver(prober HeadProber, cfg config.ResolverConfig, logger utils.Logger) *LinkResolver {
	return &LinkResolver{prober: prober, cfg: cfg, logger: logger}
}

// Resolve returns the merchant URL encoded in or reachable through the
// indirection link, or the link unchanged when nothing better is found.
// An empty input yields an empty output.
func (r *LinkResolver) Resolve(ctx context.Context, indirectionLink string) string {
	if indirectionLink == "" {
		return ""
	}

	parsed, err := url.Parse(indirectionLink)
	if err != nil {
		return indirectionLink
	}

	// Destination URLs are often carried verbatim in a query parameter.
	query := parsed.Query()
	for _, param := range r.cfg.Params {
		value := query.Get(param)
		if value == "" {
			continue
		}
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			continue
		}
		target, err := url.Parse(value)
		if err != nil || r.isEngineHost(target.Host) {
			continue
		}
		r.logger.Debugf("resolved link via %q parameter: %s", param, value)
		return value
	}

	// Known redirect endpoints are worth one redirect-following probe.
	if r.isEngineHost(parsed.Host) && r.isRedirectPath(parsed.Path) {
		if final := r.probe(ctx, indirectionLink); final != "" {
			return final
		}
	}

	return indirectionLink
}

// probe follows redirects and returns the landing URL when it leaves the
// engine's own host. Any failure degrades to "no improvement".
func (r *LinkResolver) probe(ctx context.Context, link string) string {
	final, err := r.prober.Head(ctx, link, r.cfg.ProbeTimeout)
	if err != nil {
		r.logger.Debugf("redirect probe failed for %s: %v", link, err)
		return ""
	}

	resolved := final.String()
	if resolved == link || r.isEngineHost(final.Host) {
		return ""
	}
	r.logger.Debugf("resolved link via redirect probe: %s", resolved)
	return resolved
}

func (r *LinkResolver) isEngineHost(host string) bool {
	return strings.Contains(host, r.cfg.EngineHost)
}

func (r *LinkResolver) isRedirectPath(path string) bool {
	for _, fragment := range r.cfg.RedirectPaths {
		if strings.HasPrefix(path, fragment) {
			return true
		}
	}
	return false
}
