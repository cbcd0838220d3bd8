// internal/scraper/fetcher.go
package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ofertaradar/ofertaradar/internal/config"
	"github.com/ofertaradar/ofertaradar/internal/deals"
	"github.com/ofertaradar/ofertaradar/internal/monitoring"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// DiagnosticsSink receives raw fetched bodies when extraction produced
// nothing, for offline inspection. Implementations must be best-effort;
// a sink failure never affects the search outcome.
type DiagnosticsSink interface {
	Save(source, reason string, body []byte)
}

// PageRenderer fetches a page through a real browser, for sources whose
// markup only exists after script execution.
type PageRenderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// FetchOutcome classifies how a single fetch attempt ended.
type FetchOutcome int

const (
	// OutcomeCandidates means extraction produced at least one candidate.
	OutcomeCandidates FetchOutcome = iota
	// OutcomeEmpty means the page was retrieved but nothing usable was extracted.
	OutcomeEmpty
	// OutcomeChallenge means the target served a bot challenge.
	OutcomeChallenge
	// OutcomeError means the request itself failed.
	OutcomeError
)

// errChallenge aborts the retry loop for a target; a bot wall will not go
// away by asking again.
var errChallenge = errors.New("bot challenge detected")

// Fetcher orchestrates retrieval for one source: it walks the source's
// candidate targets in order, retries each with backoff, detects bot
// challenges, and hands successful payloads to the extractor. Terminal
// failure yields an empty slice, never an error — no offers found is a
// valid outcome.
type Fetcher struct {
	source    config.SourceConfig
	client    *HTTPClient
	extractor *Extractor
	detector  *ChallengeDetector
	retry     RetryPolicy
	sink      DiagnosticsSink
	renderer  PageRenderer
	metrics   *monitoring.Metrics
	logger    utils.Logger
}

// FetcherDeps bundles the collaborators a Fetcher needs.
type FetcherDeps struct {
	Client   *HTTPClient
	Resolver *LinkResolver
	Detector *ChallengeDetector
	Retry    RetryPolicy
	Sink     DiagnosticsSink
	Renderer PageRenderer
	Metrics  *monitoring.Metrics
	Logger   utils.Logger
}

// NewFetcher creates a fetch strategy for one source.
func NewFetcher(source config.SourceConfig, deps FetcherDeps) *Fetcher {
	logger := deps.Logger.WithField("source", string(source.ID))
	return &Fetcher{
		source:    source,
		client:    deps.Client,
		extractor: NewExtractor(source, deps.Resolver, deps.Logger),
		detector:  deps.Detector,
		retry:     deps.Retry,
		sink:      deps.Sink,
		renderer:  deps.Renderer,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// Source returns the configuration this fetcher serves.
func (f *Fetcher) Source() config.SourceConfig {
	return f.source
}

// Fetch runs the full target/retry state machine for a query and returns up
// to maxResults candidates. The first target attempt that extracts at least
// one candidate short-circuits everything else.
func (f *Fetcher) Fetch(ctx context.Context, query string, maxResults int) []deals.Candidate {
	for _, target := range f.source.Targets {
		targetURL := strings.ReplaceAll(target, "{query}", url.QueryEscape(query))

		candidates := f.fetchTarget(ctx, targetURL, maxResults)
		if len(candidates) > 0 {
			return candidates
		}
		if ctx.Err() != nil {
			break
		}
	}

	if f.renderer != nil && f.source.RenderJS && ctx.Err() == nil {
		if candidates := f.fetchRendered(ctx, query, maxResults); len(candidates) > 0 {
			return candidates
		}
	}

	f.logger.Warnf("no candidates for %q after all targets and retries", query)
	return nil
}

// fetchTarget retries one target URL under the retry policy. A detected bot
// challenge stops work on this target immediately.
func (f *Fetcher) fetchTarget(ctx context.Context, targetURL string, maxResults int) []deals.Candidate {
	var candidates []deals.Candidate

	policy := f.retry
	policy.Retryable = func(err error) bool {
		return err != nil && !errors.Is(err, errChallenge)
	}

	err := policy.Do(ctx, func(attempt int) error {
		f.logger.Debugf("attempt %d/%d for %s", attempt, policy.MaxAttempts, targetURL)
		f.metrics.FetchAttempt(string(f.source.ID))

		outcome, extracted := f.attempt(ctx, targetURL, maxResults)
		switch outcome {
		case OutcomeCandidates:
			candidates = extracted
			return nil
		case OutcomeChallenge:
			return errChallenge
		case OutcomeEmpty:
			return errors.New("no candidates extracted")
		default:
			return errors.New("request failed")
		}
	})

	if err != nil {
		return nil
	}
	return candidates
}

// attempt performs one network request plus extraction.
func (f *Fetcher) attempt(ctx context.Context, targetURL string, maxResults int) (FetchOutcome, []deals.Candidate) {
	body, err := f.client.GetBody(ctx, targetURL)
	if err != nil {
		f.logger.Warnf("fetch failed for %s: %v", targetURL, err)
		return OutcomeError, nil
	}

	return f.process(ctx, body, maxResults)
}

// process runs challenge detection and extraction on a fetched body.
func (f *Fetcher) process(ctx context.Context, body []byte, maxResults int) (FetchOutcome, []deals.Candidate) {
	if detected, marker := f.detector.Detect(string(body)); detected {
		f.logger.Warnf("bot challenge detected (marker %q); abandoning target", marker)
		f.metrics.ChallengeDetected(string(f.source.ID))
		f.saveBody("challenge", body)
		return OutcomeChallenge, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		f.logger.Warnf("failed to parse document: %v", err)
		return OutcomeError, nil
	}

	candidates := f.extractor.Extract(ctx, doc, maxResults)
	if len(candidates) == 0 {
		f.saveBody("no_products", body)
		return OutcomeEmpty, nil
	}

	f.metrics.CandidatesExtracted(string(f.source.ID), len(candidates))
	return OutcomeCandidates, candidates
}

// fetchRendered tries each target once more through the browser renderer.
func (f *Fetcher) fetchRendered(ctx context.Context, query string, maxResults int) []deals.Candidate {
	for _, target := range f.source.Targets {
		targetURL := strings.ReplaceAll(target, "{query}", url.QueryEscape(query))

		html, err := f.renderer.Render(ctx, targetURL)
		if err != nil {
			f.logger.Warnf("rendered fetch failed for %s: %v", targetURL, err)
			continue
		}

		outcome, candidates := f.process(ctx, []byte(html), maxResults)
		if outcome == OutcomeCandidates {
			return candidates
		}
	}
	return nil
}

// saveBody hands a raw body to the diagnostics sink, if one is configured.
func (f *Fetcher) saveBody(reason string, body []byte) {
	if f.sink == nil {
		return
	}
	f.sink.Save(string(f.source.ID), reason, body)
}
