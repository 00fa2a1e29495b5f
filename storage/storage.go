// Package storage defines the file storage collaborator used for staging scratch
// files and persisting merged output, with a local-disk implementation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotExist is returned by Get when the path has no content.
var ErrNotExist = errors.New("storage: path does not exist")

// Storage is the substitutable backend behind staging and saving.
type Storage interface {
	Exists(ctx context.Context, path string) (bool, error)
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	MakeDirectory(ctx context.Context, path string) error
}

// Local stores files on the OS filesystem. Relative paths resolve against Root
// when it is set.
type Local struct {
	Root string
	Perm fs.FileMode
}

// NewLocal returns a Local storage rooted at root ("" keeps paths as given).
func NewLocal(root string) *Local {
	return &Local{Root: root, Perm: 0o644}
}

// Resolve maps a storage path onto the filesystem.
func (l *Local) Resolve(path string) string {
	if l.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.Root, path)
}

func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.Resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

func (l *Local) Put(_ context.Context, path string, data []byte) error {
	full := l.Resolve(path)
	if dir := filepath.Dir(full); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent of %s: %w", path, err)
		}
	}
	perm := l.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(full, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (l *Local) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.Resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Delete removes path; a missing path is not an error.
func (l *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(l.Resolve(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (l *Local) MakeDirectory(_ context.Context, path string) error {
	if err := os.MkdirAll(l.Resolve(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}
