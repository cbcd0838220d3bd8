// internal/scraper/client.go
package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ofertaradar/ofertaradar/internal/config"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// maxBodySize caps how much of a response body is read. Retail search pages
// are large but a multi-megabyte body is never product markup.
const maxBodySize = 5 << 20

// HTTPClient performs outbound requests with browser-like headers, user-agent
// rotation, a sustained rate limit, and a randomized human-like pause before
// each call. It makes exactly one attempt per call; retrying is the
// fetcher's job.
type HTTPClient struct {
	httpClient *http.Client
	userAgents []string
	currentUA  int
	uaMutex    sync.Mutex
	limiter    *rate.Limiter
	headers    map[string]string
	minDelay   time.Duration
	maxDelay   time.Duration
	logger     utils.Logger
}

// HTTPError reports a non-success status from a target.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
}

// NewHTTPClient creates a client from configuration.
func NewHTTPClient(cfg config.ClientConfig, logger utils.Logger) *HTTPClient {
	userAgents := cfg.UserAgents
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents()
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgents: userAgents,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		headers:    cfg.Headers,
		minDelay:   cfg.MinDelay,
		maxDelay:   cfg.MaxDelay,
		logger:     logger,
	}
}

// GetBody fetches targetURL and returns the response body. Non-2xx status
// is returned as *HTTPError so callers can decide whether to retry.
func (c *HTTPClient) GetBody(ctx context.Context, targetURL string) ([]byte, error) {
	if _, err := url.Parse(targetURL); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, URL: targetURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return body, nil
}

// Head issues a redirect-following HEAD probe with its own short timeout and
// returns the final URL the chain landed on.
func (c *HTTPClient) Head(ctx context.Context, targetURL string, timeout time.Duration) (*url.URL, error) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe request: %w", err)
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}
	resp.Body.Close()

	return resp.Request.URL, nil
}

// pace waits for the rate limiter and then a randomized human-like delay.
func (c *HTTPClient) pace(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if c.maxDelay <= 0 {
		return nil
	}
	delay := c.minDelay
	if span := c.maxDelay - c.minDelay; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	c.logger.Debugf("pacing for %v before request", delay)
	return sleepContext(ctx, delay)
}

// setRequestHeaders configures browser-like request headers with user-agent
// rotation.
func (c *HTTPClient) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

// nextUserAgent returns the next user agent in rotation.
func (c *HTTPClient) nextUserAgent() string {
	c.uaMutex.Lock()
	defer c.uaMutex.Unlock()

	ua := c.userAgents[c.currentUA]
	c.currentUA = (c.currentUA + 1) % len(c.userAgents)
	return ua
}

// defaultUserAgents returns a set of realistic desktop user agents.
func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	}
}
