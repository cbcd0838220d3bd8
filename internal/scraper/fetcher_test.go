// internal/scraper/fetcher_test.go
package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ofertaradar/ofertaradar/internal/config"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

const productPage = `
<div class="productCard">
	<span class="nameCard">SSD 1TB</span>
	<span class="priceCard">R$ 399,90</span>
	<a class="productLink" href="https://www.kabum.com.br/produto/123">ver</a>
</div>`

const challengePage = `<html>Our systems have detected unusual traffic from your computer</html>`

type recordingSink struct {
	mu      sync.Mutex
	reasons []string
}

func (s *recordingSink) Save(source, reason string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons = append(s.reasons, reason)
}

func fastClient(t *testing.T) *HTTPClient {
	t.Helper()
	return NewHTTPClient(config.ClientConfig{
		Timeout:   5 * time.Second,
		RateLimit: 1000,
		RateBurst: 100,
	}, utils.NopLogger())
}

func fetcherForTargets(t *testing.T, sink DiagnosticsSink, targets ...string) *Fetcher {
	t.Helper()

	source := testSource()
	source.Targets = targets

	return NewFetcher(source, FetcherDeps{
		Client:   fastClient(t),
		Resolver: testResolver(),
		Detector: NewChallengeDetector([]string{"unusual traffic"}),
		Retry:    NewRetryPolicy(2, time.Millisecond, time.Millisecond),
		Sink:     sink,
		Metrics:  nil,
		Logger:   utils.NopLogger(),
	})
}

func TestFetchReturnsCandidatesFromFirstWorkingTarget(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "ssd 1tb" {
			t.Errorf("query parameter = %q, want %q", got, "ssd 1tb")
		}
		w.Write([]byte(productPage))
	}))
	defer ts.Close()

	fetcher := fetcherForTargets(t, nil, ts.URL+"/busca?q={query}")
	candidates := fetcher.Fetch(context.Background(), "ssd 1tb", 5)

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Price != 399.90 {
		t.Errorf("price = %v", candidates[0].Price)
	}
}

func TestFetchFallsThroughToNextTarget(t *testing.T) {
	var firstHits int32
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&firstHits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	}))
	defer working.Close()

	fetcher := fetcherForTargets(t, nil,
		broken.URL+"/busca/{query}",
		working.URL+"/busca/{query}",
	)
	candidates := fetcher.Fetch(context.Background(), "ssd", 5)

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	// The broken target burned its full retry budget first.
	if got := atomic.LoadInt32(&firstHits); got != 2 {
		t.Errorf("broken target hit %d times, want 2", got)
	}
}

func TestFetchAbandonsTargetOnChallenge(t *testing.T) {
	var hits int32
	walled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(challengePage))
	}))
	defer walled.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	}))
	defer working.Close()

	sink := &recordingSink{}
	fetcher := fetcherForTargets(t, sink,
		walled.URL+"/busca/{query}",
		working.URL+"/busca/{query}",
	)
	candidates := fetcher.Fetch(context.Background(), "ssd", 5)

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	// A challenge is terminal for its target; no retry against the wall.
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("walled target hit %d times, want 1", got)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.reasons) != 1 || sink.reasons[0] != "challenge" {
		t.Errorf("sink reasons = %v, want [challenge]", sink.reasons)
	}
}

func TestFetchSavesEmptyPagesToSink(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nenhum resultado</body></html>"))
	}))
	defer ts.Close()

	sink := &recordingSink{}
	fetcher := fetcherForTargets(t, sink, ts.URL+"/busca/{query}")
	candidates := fetcher.Fetch(context.Background(), "unobtainium", 5)

	if candidates != nil {
		t.Errorf("candidates = %v, want nil", candidates)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.reasons) == 0 || sink.reasons[0] != "no_products" {
		t.Errorf("sink reasons = %v, want no_products entries", sink.reasons)
	}
}

func TestFetchEscapesQueryInTarget(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Write([]byte(productPage))
	}))
	defer ts.Close()

	fetcher := fetcherForTargets(t, nil, ts.URL+"/busca/{query}")
	fetcher.Fetch(context.Background(), "fone de ouvido", 5)

	if gotPath != "/busca/fone+de+ouvido" {
		t.Errorf("request path = %q", gotPath)
	}
}

func TestFetchStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := fetcherForTargets(t, nil, "https://unreachable.invalid/busca/{query}")
	if got := fetcher.Fetch(ctx, "ssd", 5); got != nil {
		t.Errorf("candidates = %v, want nil", got)
	}
}
