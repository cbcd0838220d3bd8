// internal/diagnostics/sink.go

// Package diagnostics archives raw HTML bodies that produced no candidates,
// so broken selectors and new bot walls can be inspected offline.
package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ofertaradar/ofertaradar/internal/utils"
)

// FileSink writes failed page bodies under a directory, one file per
// incident. Saving is best-effort; errors are logged and swallowed.
type FileSink struct {
	dir    string
	logger utils.Logger
	now    func() time.Time
}

// NewFileSink creates a sink rooted at dir, creating it if needed.
func NewFileSink(dir string, logger utils.Logger) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating diagnostics directory: %w", err)
	}
	return &FileSink{dir: dir, logger: logger, now: time.Now}, nil
}

// Save writes one body as <source>_<reason>_<unixnano>.html.
func (s *FileSink) Save(source, reason string, body []byte) {
	name := fmt.Sprintf("%s_%s_%d.html", source, reason, s.now().UnixNano())
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, body, 0o644); err != nil {
		s.logger.Warnf("failed to save diagnostics body %s: %v", name, err)
		return
	}
	s.logger.Debugf("saved diagnostics body %s (%d bytes)", name, len(body))
}
