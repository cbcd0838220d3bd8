// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ofertaradar/ofertaradar/internal/deals"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS search_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	query       TEXT    NOT NULL,
	searched_at TEXT    NOT NULL,
	best_source TEXT    NOT NULL DEFAULT '',
	best_price  REAL    NOT NULL DEFAULT 0,
	result_file TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_history_query ON search_history(query);
`

// HistoryEntry is one row of the search history index.
type HistoryEntry struct {
	Query      string
	SearchedAt time.Time
	BestSource string
	BestPrice  float64
	ResultFile string
}

// HistoryIndex keeps a SQLite index of completed searches so past prices
// can be queried without scanning the JSON files.
type HistoryIndex struct {
	db *sql.DB
}

// OpenHistoryIndex opens (or creates) the index database at path, creating
// parent directories as needed.
func OpenHistoryIndex(path string) (*HistoryIndex, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &HistoryIndex{db: db}, nil
}

// Close releases the underlying database handle.
func (h *HistoryIndex) Close() error {
	return h.db.Close()
}

// Record inserts one completed search into the index. Searches where no
// source produced an offer are recorded with an empty source and zero
// price.
func (h *HistoryIndex) Record(result deals.Result, file string) error {
	source, price := "", 0.0
	if result.BestOverall != nil {
		source = string(result.BestOverall.Source)
		price = result.BestOverall.Price
	}

	_, err := h.db.Exec(
		`INSERT INTO search_history (query, searched_at, best_source, best_price, result_file)
		 VALUES (?, ?, ?, ?, ?)`,
		result.Query, result.Timestamp.UTC().Format(time.RFC3339), source, price, file,
	)
	if err != nil {
		return fmt.Errorf("recording search: %w", err)
	}
	return nil
}

// Recent returns up to limit history entries, newest first.
func (h *HistoryIndex) Recent(limit int) ([]HistoryEntry, error) {
	rows, err := h.db.Query(
		`SELECT query, searched_at, best_source, best_price, result_file
		 FROM search_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// PriceHistory returns past best prices for one query, oldest first.
func (h *HistoryIndex) PriceHistory(query string) ([]HistoryEntry, error) {
	rows, err := h.db.Query(
		`SELECT query, searched_at, best_source, best_price, result_file
		 FROM search_history WHERE query = ? ORDER BY id ASC`, query)
	if err != nil {
		return nil, fmt.Errorf("querying price history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var searchedAt string
		if err := rows.Scan(&entry.Query, &searchedAt, &entry.BestSource, &entry.BestPrice, &entry.ResultFile); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, searchedAt); err == nil {
			entry.SearchedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
