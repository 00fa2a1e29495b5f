package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfmerge/merger"
	"github.com/wudi/pdfmerge/pdftest"
)

func TestParseInput(t *testing.T) {
	in, err := parseInput("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", in.path)
	assert.True(t, in.pages.All())
	assert.Equal(t, merger.OrientationAuto, in.orientation)

	in, err = parseInput("dir/b.pdf:3,1-2:L")
	require.NoError(t, err)
	assert.Equal(t, "dir/b.pdf", in.path)
	assert.Equal(t, []int{3, 1, 2}, in.pages.Numbers())
	assert.Equal(t, merger.Landscape, in.orientation)

	in, err = parseInput("c.pdf:all:portrait")
	require.NoError(t, err)
	assert.True(t, in.pages.All())
	assert.Equal(t, merger.Portrait, in.orientation)

	for _, bad := range []string{"", ":1", "a.pdf:0", "a.pdf:1:diagonal"} {
		_, err := parseInput(bad)
		assert.Error(t, err, bad)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PDFMERGE_SCRATCH_DIR", filepath.Join(dir, "scratch"))
	t.Setenv("PDFMERGE_CONVERTER", "none")

	a := pdftest.WriteFile(t, dir, "a.pdf", pdftest.Repeat(pdftest.A4, 3)...)
	b := pdftest.WriteFile(t, dir, "b.pdf", pdftest.Landscape, pdftest.Landscape)
	out := filepath.Join(dir, "out.pdf")

	stdout, err := run(t, "merge", "--duplex", "-o", out, a, b+":2,1")
	require.NoError(t, err)
	assert.Contains(t, stdout, out)
	assert.FileExists(t, out)

	entries, err := os.ReadDir(filepath.Join(dir, "scratch"))
	if err == nil {
		assert.Empty(t, entries, "scratch files are removed")
	}
}

func TestMergeCommandMissingInput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PDFMERGE_CONVERTER", "none")
	_, err := run(t, "merge", "-o", filepath.Join(dir, "out.pdf"), filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, merger.ErrNotFound)
}

func TestVersionCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	old := pdftest.WriteFile(t, dir, "old.pdf", pdftest.A4)
	newer := pdftest.WriteVersioned(t, dir, "new.pdf", "1.7", pdftest.A4)

	stdout, err := run(t, "version", old, newer)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `old\.pdf\s+1\.3\s+no`, lines[1])
	assert.Regexp(t, `new\.pdf\s+1\.7\s+yes`, lines[2])
}
