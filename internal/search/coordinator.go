// internal/search/coordinator.go

// Package search coordinates searches on top of the aggregation engine:
// query validation, a TTL result cache, and a process-wide admission gate
// that admits at most one live aggregation at a time.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ofertaradar/ofertaradar/internal/deals"
	"github.com/ofertaradar/ofertaradar/internal/monitoring"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// Aggregator produces a full multi-source result for a query.
// Implemented by *aggregator.Engine.
type Aggregator interface {
	Aggregate(ctx context.Context, query string) deals.Result
}

// Persister records completed results. Persistence is best-effort; failures
// are logged and never surface to the caller.
type Persister interface {
	Save(result deals.Result) error
}

type cacheEntry struct {
	result   deals.Result
	storedAt time.Time
}

// Coordinator serializes aggregations and serves repeats from cache.
type Coordinator struct {
	agg       Aggregator
	persister Persister
	ttl       time.Duration
	metrics   *monitoring.Metrics
	logger    utils.Logger
	now       func() time.Time

	cacheMu sync.Mutex
	cache   map[string]cacheEntry

	// gate admits at most one aggregation per process. TryLock keeps
	// rejected callers from queueing behind a slow scrape.
	gate sync.Mutex
}

// NewCoordinator creates a search coordinator. persister may be nil.
func NewCoordinator(agg Aggregator, ttl time.Duration, persister Persister, metrics *monitoring.Metrics, logger utils.Logger) *Coordinator {
	return &Coordinator{
		agg:       agg,
		persister: persister,
		ttl:       ttl,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		cache:     make(map[string]cacheEntry),
	}
}

// Search validates the query, serves a fresh cached result if one exists,
// and otherwise runs one aggregation under the admission gate. A second
// caller arriving while an aggregation is live gets ErrBusy immediately.
func (c *Coordinator) Search(ctx context.Context, query string) (deals.Result, error) {
	key := normalizeQuery(query)
	if key == "" {
		return deals.Result{}, ErrInvalidQuery
	}

	if cached, ok := c.lookup(key); ok {
		c.metrics.CacheHit()
		c.logger.Infof("cache hit for %q", key)
		return cached, nil
	}

	if !c.gate.TryLock() {
		c.metrics.SearchCompleted("busy", 0)
		return deals.Result{}, ErrBusy
	}
	defer c.gate.Unlock()

	// A search for the same query may have finished between the first
	// lookup and admission.
	if cached, ok := c.lookup(key); ok {
		c.metrics.CacheHit()
		return cached, nil
	}

	start := c.now()
	result := c.agg.Aggregate(ctx, key)
	c.metrics.SearchCompleted(outcomeLabel(result), c.now().Sub(start))

	c.store(key, result)
	c.persist(result)
	return result, nil
}

// Invalidate drops the cached result for a query, if any.
func (c *Coordinator) Invalidate(query string) {
	key := normalizeQuery(query)
	c.cacheMu.Lock()
	delete(c.cache, key)
	c.cacheMu.Unlock()
}

func (c *Coordinator) lookup(key string) (deals.Result, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return deals.Result{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.cache, key)
		return deals.Result{}, false
	}
	return entry.result, true
}

func (c *Coordinator) store(key string, result deals.Result) {
	c.cacheMu.Lock()
	c.cache[key] = cacheEntry{result: result, storedAt: c.now()}
	c.cacheMu.Unlock()
}

func (c *Coordinator) persist(result deals.Result) {
	if c.persister == nil {
		return
	}
	if err := c.persister.Save(result); err != nil {
		c.logger.Warnf("failed to persist result for %q: %v", result.Query, err)
	}
}

// normalizeQuery canonicalizes a query for caching and aggregation.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// outcomeLabel classifies a result for the searches_total metric.
func outcomeLabel(result deals.Result) string {
	if result.BestOverall == nil {
		return "empty"
	}
	return "found"
}
