// cmd/ofertaradar/main.go

// Command ofertaradar scrapes Brazilian retail sources for a product query,
// aggregates the best offers, and serves them over an HTTP API. With -query
// it runs a single search and prints the result instead of serving.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ofertaradar/ofertaradar/internal/aggregator"
	"github.com/ofertaradar/ofertaradar/internal/browser"
	"github.com/ofertaradar/ofertaradar/internal/config"
	"github.com/ofertaradar/ofertaradar/internal/diagnostics"
	"github.com/ofertaradar/ofertaradar/internal/monitoring"
	"github.com/ofertaradar/ofertaradar/internal/scraper"
	"github.com/ofertaradar/ofertaradar/internal/search"
	"github.com/ofertaradar/ofertaradar/internal/server"
	"github.com/ofertaradar/ofertaradar/internal/storage"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML configuration file")
		addr        = flag.String("addr", "", "HTTP listen address (overrides configuration)")
		query       = flag.String("query", "", "run one search and print the result as JSON")
		render      = flag.Bool("render", false, "enable headless-browser fallback for script-heavy sources")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ofertaradar %s (built %s)\n", version, buildTime)
		return
	}

	if err := run(*configPath, *addr, *query, *render); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr, query string, render bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Address = addr
	}

	logger := utils.NewLogger(utils.ParseLevel(cfg.Logging.Level))
	logger.Infof("ofertaradar %s starting", version)

	metrics := monitoring.NewMetrics("ofertaradar")

	coordinator, store, history, err := buildPipeline(cfg, render, metrics, logger)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	if query != "" {
		return runOnce(coordinator, query)
	}

	return serve(cfg, coordinator, store, history, metrics, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// buildPipeline assembles the fetch, aggregation, and coordination layers
// from configuration.
func buildPipeline(cfg *config.Config, render bool, metrics *monitoring.Metrics, logger utils.Logger) (*search.Coordinator, *storage.Store, *storage.HistoryIndex, error) {
	client := scraper.NewHTTPClient(cfg.Client, logger)
	resolver := scraper.NewLinkResolver(client, cfg.Resolver, logger)
	detector := scraper.NewChallengeDetector(cfg.ChallengeMarkers)
	retry := scraper.NewRetryPolicy(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, cfg.Retry.MaxDelay)

	sink, err := diagnostics.NewFileSink(cfg.Diagnostics.Dir, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setting up diagnostics: %w", err)
	}

	var renderer scraper.PageRenderer
	if render {
		userAgent := ""
		if len(cfg.Client.UserAgents) > 0 {
			userAgent = cfg.Client.UserAgents[0]
		}
		renderer = browser.NewRenderer(userAgent, cfg.Search.SourceTimeout, logger)
	}

	deps := scraper.FetcherDeps{
		Client:   client,
		Resolver: resolver,
		Detector: detector,
		Retry:    retry,
		Sink:     sink,
		Renderer: renderer,
		Metrics:  metrics,
		Logger:   logger,
	}

	fetchers := make([]aggregator.SourceFetcher, 0, len(cfg.Sources))
	for _, source := range cfg.Sources {
		fetchers = append(fetchers, scraper.NewFetcher(source, deps))
	}

	engine := aggregator.NewEngine(fetchers, cfg.Search, metrics, logger)

	history, err := storage.OpenHistoryIndex(cfg.Storage.HistoryDB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening history index: %w", err)
	}

	store, err := storage.NewStore(cfg.Storage.ResultsDir, history, logger)
	if err != nil {
		history.Close()
		return nil, nil, nil, fmt.Errorf("setting up result storage: %w", err)
	}

	coordinator := search.NewCoordinator(engine, cfg.Search.CacheTTL, store, metrics, logger)
	return coordinator, store, history, nil
}

// runOnce performs a single search and prints the result to stdout.
func runOnce(coordinator *search.Coordinator, query string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := coordinator.Search(ctx, query)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// serve runs the HTTP API until interrupted.
func serve(cfg *config.Config, coordinator *search.Coordinator, store *storage.Store, history *storage.HistoryIndex, metrics *monitoring.Metrics, logger utils.Logger) error {
	srv := server.New(server.Options{
		Address:     cfg.Server.Address,
		Searcher:    coordinator,
		Store:       store,
		History:     history,
		Metrics:     metrics,
		Logger:      logger,
		RecentLimit: cfg.Storage.RecentLimit,
		Version:     version,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
