// internal/server/server.go

// Package server exposes the search pipeline over an HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ofertaradar/ofertaradar/internal/deals"
	"github.com/ofertaradar/ofertaradar/internal/monitoring"
	"github.com/ofertaradar/ofertaradar/internal/output"
	"github.com/ofertaradar/ofertaradar/internal/search"
	"github.com/ofertaradar/ofertaradar/internal/storage"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// Searcher runs searches; implemented by *search.Coordinator.
type Searcher interface {
	Search(ctx context.Context, query string) (deals.Result, error)
}

// ResultStore reads persisted results; implemented by *storage.Store.
type ResultStore interface {
	Recent(limit int) ([]string, error)
	Load(name string) (deals.Result, error)
}

// Server is the HTTP front end.
type Server struct {
	searcher    Searcher
	store       ResultStore
	history     *storage.HistoryIndex
	metrics     *monitoring.Metrics
	logger      utils.Logger
	recentLimit int
	version     string

	httpServer *http.Server
}

// Options configures a Server. Store, History, and Metrics may be nil; the
// corresponding endpoints degrade gracefully.
type Options struct {
	Address     string
	Searcher    Searcher
	Store       ResultStore
	History     *storage.HistoryIndex
	Metrics     *monitoring.Metrics
	Logger      utils.Logger
	RecentLimit int
	Version     string
}

// New creates the HTTP server and wires its routes.
func New(opts Options) *Server {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 20
	}

	s := &Server{
		searcher:    opts.Searcher,
		store:       opts.Store,
		history:     opts.History,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		recentLimit: opts.RecentLimit,
		version:     opts.Version,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodGet)
	router.HandleFunc("/api/recent", s.handleRecent).Methods(http.MethodGet)
	router.HandleFunc("/api/results/{file}", s.handleResult).Methods(http.MethodGet)
	router.HandleFunc("/api/results/{file}/xlsx", s.handleExport).Methods(http.MethodGet)
	router.HandleFunc("/api/export-xlsx", s.handleExportPost).Methods(http.MethodPost)
	router.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	router.Use(s.logRequests)

	s.httpServer = &http.Server{
		Addr:         opts.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the server until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Infof("http server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		query = r.URL.Query().Get("query")
	}

	result, err := s.searcher.Search(r.Context(), query)
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		s.writeError(w, http.StatusBadRequest, "query parameter q must not be empty")
		return
	case errors.Is(err, search.ErrBusy):
		w.Header().Set("Retry-After", "30")
		s.writeError(w, http.StatusTooManyRequests, "a search is already in progress, try again shortly")
		return
	case err != nil:
		s.logger.Errorf("search failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "result storage is disabled")
		return
	}

	names, err := s.store.Recent(s.recentLimit)
	if err != nil {
		s.logger.Errorf("listing recent results: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	if names == nil {
		names = []string{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"results": names})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	s.writeWorkbook(w, result)
}

func (s *Server) writeWorkbook(w http.ResponseWriter, result deals.Result) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", storage.Slugify(result.Query)+".xlsx"))

	if err := output.WriteExcel(w, result); err != nil {
		// Headers are already out; all that is left is logging.
		s.logger.Errorf("writing xlsx export: %v", err)
	}
}

// handleExportPost exports a stored result named in the form or query
// parameter "file".
func (s *Server) handleExportPost(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "result storage is disabled")
		return
	}

	name := r.FormValue("file")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "parameter file must name a stored result")
		return
	}

	result, err := s.store.Load(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "result not found")
		return
	}

	s.writeWorkbook(w, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "search history is disabled")
		return
	}

	var entries []storage.HistoryEntry
	var err error
	if query := r.URL.Query().Get("q"); query != "" {
		entries, err = s.history.PriceHistory(query)
	} else {
		entries, err = s.history.Recent(s.recentLimit)
	}
	if err != nil {
		s.logger.Errorf("querying history: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query history")
		return
	}
	if entries == nil {
		entries = []storage.HistoryEntry{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// loadResult fetches a stored result named by the {file} path variable.
func (s *Server) loadResult(w http.ResponseWriter, r *http.Request) (deals.Result, bool) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "result storage is disabled")
		return deals.Result{}, false
	}

	name := mux.Vars(r)["file"]
	result, err := s.store.Load(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "result not found")
		return deals.Result{}, false
	}
	return result, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Errorf("encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
