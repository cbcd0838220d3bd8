// internal/storage/store.go

// Package storage persists search results as JSON files and keeps a
// queryable history index in SQLite.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ofertaradar/ofertaradar/internal/deals"
	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// Store writes one JSON file per completed search under a results
// directory, named <slug>_<timestamp>.json.
type Store struct {
	dir    string
	index  *HistoryIndex
	logger utils.Logger
}

// NewStore creates a result store rooted at dir, creating it if needed.
// index may be nil when history tracking is disabled.
func NewStore(dir string, index *HistoryIndex, logger utils.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	return &Store{dir: dir, index: index, logger: logger}, nil
}

// Save writes the result to disk and records it in the history index.
func (s *Store) Save(result deals.Result) error {
	name := fmt.Sprintf("%s_%s.json", Slugify(result.Query), result.Timestamp.Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}

	if s.index != nil {
		if err := s.index.Record(result, name); err != nil {
			s.logger.Warnf("failed to index result %s: %v", name, err)
		}
	}

	s.logger.Infof("saved result %s", name)
	return nil
}

// Recent lists up to limit result file names, newest first.
func (s *Store) Recent(limit int) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing results directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}

	// File names embed the save timestamp, so reverse lexicographic
	// order is newest first for a given query.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// Load reads one stored result by file name. Names containing path
// separators are rejected.
func (s *Store) Load(name string) (deals.Result, error) {
	var result deals.Result

	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return result, fmt.Errorf("invalid result name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return result, fmt.Errorf("reading result file: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("decoding result file: %w", err)
	}
	return result, nil
}
