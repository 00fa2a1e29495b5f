package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocal(root)

	ok, err := s.Exists(ctx, "out/merged.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "out/merged.pdf", []byte("%PDF-1.3")))
	ok, err = s.Exists(ctx, "out/merged.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(root, "out", "merged.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	got, err := s.Get(ctx, "out/merged.pdf")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, s.Delete(ctx, "out/merged.pdf"))
	ok, err = s.Exists(ctx, "out/merged.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalDeleteMissingIsNoop(t *testing.T) {
	s := NewLocal(t.TempDir())
	assert.NoError(t, s.Delete(context.Background(), "never-written.pdf"))
}

func TestLocalGetMissing(t *testing.T) {
	s := NewLocal(t.TempDir())
	_, err := s.Get(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalAbsolutePathIgnoresRoot(t *testing.T) {
	ctx := context.Background()
	abs := filepath.Join(t.TempDir(), "abs.pdf")
	s := NewLocal(t.TempDir())
	require.NoError(t, s.Put(ctx, abs, []byte("x")))
	_, err := os.Stat(abs)
	assert.NoError(t, err)
}

func TestLocalMakeDirectory(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocal(root)
	require.NoError(t, s.MakeDirectory(ctx, "scratch/nested"))
	info, err := os.Stat(filepath.Join(root, "scratch", "nested"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	// creating twice is fine
	assert.NoError(t, s.MakeDirectory(ctx, "scratch/nested"))
}
