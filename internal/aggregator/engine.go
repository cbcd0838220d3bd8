// internal/aggregator/engine.go

// Package aggregator runs the per-source fetch strategies and folds their
// candidates into the best deal per source and overall. Sources are
// independent: one failing or timing out degrades to the no-offer sentinel
// and never aborts the aggregation.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ofertaradar/ofertaradar/internal/config"
	"github.com/ofertaradar/ofertaradar/internal/deals"
	"github.com/ofertaradar/ofertaradar/internal/monitoring"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// SingleOfferNote is the savings text when only one source produced an
// offer and there is nothing to compare against.
const SingleOfferNote = "single offer, no comparison"

// SourceFetcher is the per-source fetch strategy the engine drives.
// Implemented by *scraper.Fetcher.
type SourceFetcher interface {
	Source() config.SourceConfig
	Fetch(ctx context.Context, query string, maxResults int) []deals.Candidate
}

// Engine aggregates results across all configured sources.
type Engine struct {
	fetchers      []SourceFetcher
	maxResults    int
	sourceTimeout time.Duration
	metrics       *monitoring.Metrics
	logger        utils.Logger
	now           func() time.Time
}

// NewEngine creates an aggregation engine over the given fetchers. The
// fetcher order defines source priority for overall-best tie-breaking.
func NewEngine(fetchers []SourceFetcher, search config.SearchConfig, metrics *monitoring.Metrics, logger utils.Logger) *Engine {
	return &Engine{
		fetchers:      fetchers,
		maxResults:    search.MaxResultsPerSource,
		sourceTimeout: search.SourceTimeout,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// Aggregate fetches every source concurrently and computes the cheapest
// offer per source and overall. It always returns a structured result;
// total failure is a result full of sentinels with a nil BestOverall.
func (e *Engine) Aggregate(ctx context.Context, query string) deals.Result {
	perSource := e.fetchAll(ctx, query)

	result := deals.Result{
		Query:     query,
		Timestamp: e.now(),
		PerSource: make(map[deals.SourceID]deals.BestDeal, len(e.fetchers)),
	}

	bests := make([]deals.BestDeal, len(e.fetchers))
	for i, fetcher := range e.fetchers {
		src := fetcher.Source()
		best := bestOf(src, perSource[i])
		if best.IsSentinel() {
			e.metrics.SourceSentineled(string(src.ID))
		}
		bests[i] = best
		result.PerSource[src.ID] = best
	}

	result.BestOverall = e.overall(bests)
	return result
}

// fetchAll runs all source fetchers concurrently, each under its own
// timeout. A source exceeding its timeout is treated as having returned no
// candidates.
func (e *Engine) fetchAll(ctx context.Context, query string) [][]deals.Candidate {
	results := make([][]deals.Candidate, len(e.fetchers))

	var wg sync.WaitGroup
	for i, fetcher := range e.fetchers {
		wg.Add(1)
		go func(i int, fetcher SourceFetcher) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(ctx, e.sourceTimeout)
			defer cancel()

			results[i] = fetcher.Fetch(srcCtx, query, e.maxResults)
			e.logger.Infof("source %s returned %d candidates for %q",
				fetcher.Source().ID, len(results[i]), query)
		}(i, fetcher)
	}
	wg.Wait()

	return results
}

// bestOf picks the cheapest candidate for one source, first-encountered
// order breaking ties. No candidates yields the sentinel.
func bestOf(src config.SourceConfig, candidates []deals.Candidate) deals.BestDeal {
	if len(candidates) == 0 {
		return deals.NoOffer(src.ID)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Price < best.Price {
			best = c
		}
	}

	return deals.BestDeal{
		Name:     best.Name,
		Price:    best.Price,
		Link:     best.Link,
		CartLink: cartLink(src, best.Link),
		Source:   src.ID,
	}
}

// overall picks the cheapest non-sentinel deal across sources, configured
// order breaking ties, and computes savings against the runner-up.
func (e *Engine) overall(bests []deals.BestDeal) *deals.Overall {
	bestIdx := -1
	for i, deal := range bests {
		if deal.IsSentinel() {
			continue
		}
		if bestIdx == -1 || deal.Price < bests[bestIdx].Price {
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return nil
	}

	best := bests[bestIdx]
	overall := &deals.Overall{
		Source:   best.Source,
		Name:     best.Name,
		Price:    best.Price,
		Link:     best.Link,
		CartLink: best.CartLink,
	}

	// Runner-up: cheapest among the other sources' non-sentinel deals.
	runnerUp := -1
	for i, deal := range bests {
		if i == bestIdx || deal.IsSentinel() {
			continue
		}
		if runnerUp == -1 || deal.Price < bests[runnerUp].Price {
			runnerUp = i
		}
	}

	if runnerUp == -1 {
		overall.Savings = SingleOfferNote
		return overall
	}

	saved := bests[runnerUp].Price - best.Price
	percent := 0.0
	if bests[runnerUp].Price > 0 {
		percent = saved / bests[runnerUp].Price * 100
	}
	overall.SavingsValue = saved
	overall.Savings = fmt.Sprintf("saves R$ %.2f (%.1f%%) vs %s", saved, percent, bests[runnerUp].Source)
	return overall
}

// cartLink applies the source's cart-link transform; most sources use the
// product link itself.
func cartLink(src config.SourceConfig, link string) string {
	if link == "" {
		return ""
	}
	if src.CartLinkTemplate == "" {
		return link
	}
	return strings.ReplaceAll(src.CartLinkTemplate, "{link}", link)
}
