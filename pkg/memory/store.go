package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultFileName is the memory note looked up in the working directory
const DefaultFileName = "SMOLCC.md"

// Store holds the memory note as it was at session start
type Store struct {
	path     string
	content  string
	exists   bool
	modified atomic.Bool
	watcher  *FileWatcher
	mu       sync.Mutex
}

// Load reads the note at path. A missing file yields an empty store;
// any other read failure is returned.
func Load(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("memory note path is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve memory note path: %w", err)
	}

	s := &Store{path: abs}

	data, err := os.ReadFile(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", abs).Msg("No memory note found")
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read memory note %s: %w", abs, err)
	}

	s.content = string(data)
	s.exists = true

	log.Debug().
		Str("path", abs).
		Int("bytes", len(data)).
		Msg("Memory note loaded")

	return s, nil
}

// Path returns the absolute path of the note
func (s *Store) Path() string {
	return s.path
}

// CurrentContent returns the note as loaded; empty when absent
func (s *Store) CurrentContent() string {
	return s.content
}

// Exists reports whether the note was present at load time
func (s *Store) Exists() bool {
	return s.exists
}

// Watch starts observing the note file for the rest of the session
func (s *Store) Watch(logger zerolog.Logger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return nil
	}

	watcher, err := NewFileWatcher(logger, s.path, func() {
		if !s.modified.Swap(true) {
			logger.Info().Str("path", s.path).Msg("Memory note updated")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch memory note: %w", err)
	}
	s.watcher = watcher
	return nil
}

// Modified reports whether the note changed on disk since Watch was called
func (s *Store) Modified() bool {
	return s.modified.Load()
}

// Close stops watching
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Stop()
	s.watcher = nil
	return err
}
