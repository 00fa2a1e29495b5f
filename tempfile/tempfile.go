// Package tempfile stages scratch files for a merge job and removes them at teardown.
//
// A Store is owned by exactly one job. Paths are named with random UUIDs, so several
// stores may share one scratch directory.
package tempfile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wudi/pdfmerge/observability"
	"github.com/wudi/pdfmerge/storage"
)

// DefaultExt is appended to every generated name.
const DefaultExt = ".pdf"

// Store tracks every path it hands out until Cleanup.
type Store struct {
	dir     string
	backend storage.Storage
	logger  observability.Logger

	dirReady bool
	paths    []string
	seen     map[string]struct{}
}

// New returns a store writing into dir through backend. The directory is created
// on first use.
func New(dir string, backend storage.Storage) *Store {
	return &Store{
		dir:     dir,
		backend: backend,
		logger:  observability.NopLogger{},
		seen:    make(map[string]struct{}),
	}
}

// WithLogger sets the logger used for cleanup warnings.
func (s *Store) WithLogger(l observability.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

// Dir returns the scratch directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) ensureDir(ctx context.Context) error {
	if s.dirReady {
		return nil
	}
	ok, err := s.backend.Exists(ctx, s.dir)
	if err != nil {
		return fmt.Errorf("check scratch dir: %w", err)
	}
	if !ok {
		if err := s.backend.MakeDirectory(ctx, s.dir); err != nil {
			return fmt.Errorf("create scratch dir: %w", err)
		}
	}
	s.dirReady = true
	return nil
}

// Reserve returns a fresh registered path without writing to it.
func (s *Store) Reserve(ctx context.Context) (string, error) {
	if err := s.ensureDir(ctx); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, uuid.NewString()+DefaultExt)
	s.Register(path)
	return path, nil
}

// Stage writes data to a fresh path and registers it.
func (s *Store) Stage(ctx context.Context, data []byte) (string, error) {
	path, err := s.Reserve(ctx)
	if err != nil {
		return "", err
	}
	if err := s.backend.Put(ctx, path, data); err != nil {
		return "", fmt.Errorf("stage content: %w", err)
	}
	s.logger.Debug("staged content", observability.String("path", path), observability.Int("bytes", len(data)))
	return path, nil
}

// Register adds an externally created path to the cleanup set.
func (s *Store) Register(path string) {
	if _, ok := s.seen[path]; ok {
		return
	}
	s.seen[path] = struct{}{}
	s.paths = append(s.paths, path)
}

// Paths returns the registered paths in creation order.
func (s *Store) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Len reports how many paths are registered.
func (s *Store) Len() int { return len(s.paths) }

// Cleanup deletes every registered path. Failures are logged and swallowed; a lost
// scratch file is never fatal to the caller.
func (s *Store) Cleanup(ctx context.Context) {
	for _, p := range s.paths {
		if err := s.backend.Delete(ctx, p); err != nil {
			s.logger.Warn("remove temporary file", observability.String("path", p), observability.Error("error", err))
		}
	}
	s.paths = nil
	s.seen = make(map[string]struct{})
}
