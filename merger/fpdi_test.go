package merger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfmerge/engine"
	"github.com/wudi/pdfmerge/normalize"
	"github.com/wudi/pdfmerge/pdftest"
)

func fpdiJob(t *testing.T, conv normalize.Converter) (*Job, string) {
	t.Helper()
	dir := t.TempDir()
	job := New(Options{ScratchDir: filepath.Join(dir, "scratch"), Converter: conv})
	t.Cleanup(func() { job.Close() })
	return job, dir
}

func readSizes(t *testing.T, path string) []engine.Size {
	t.Helper()
	e := engine.NewFpdi()
	n, err := e.SetSourceFile(path)
	require.NoError(t, err)
	out := make([]engine.Size, n)
	for i := range out {
		tpl, err := e.ImportPage(i + 1)
		require.NoError(t, err)
		out[i], err = e.TemplateSize(tpl)
		require.NoError(t, err)
	}
	return out
}

func TestFpdiRoundTripSinglePage(t *testing.T) {
	ctx := context.Background()
	job, dir := fpdiJob(t, nil)
	src := pdftest.WriteFile(t, dir, "one.pdf", pdftest.Landscape)

	_, err := job.Add(ctx, src, AllPages(), OrientationAuto)
	require.NoError(t, err)
	require.NoError(t, job.Merge(ctx, OrientationAuto, false))

	res, err := job.Save(ctx, filepath.Join(dir, "out.pdf"))
	require.NoError(t, err)

	got := readSizes(t, res.Path)
	require.Len(t, got, 1)
	assert.InDelta(t, pdftest.Landscape.Width, got[0].Width, 0.01)
	assert.InDelta(t, pdftest.Landscape.Height, got[0].Height, 0.01)
}

func TestFpdiDuplexMerge(t *testing.T) {
	ctx := context.Background()
	job, dir := fpdiJob(t, nil)
	a := pdftest.WriteFile(t, dir, "a.pdf", pdftest.Repeat(pdftest.A4, 3)...)
	b := pdftest.WriteFile(t, dir, "b.pdf", pdftest.Letter, pdftest.Letter)
	c := pdftest.WriteFile(t, dir, "c.pdf", pdftest.Repeat(pdftest.Landscape, 5)...)

	for _, p := range []string{a, b, c} {
		_, err := job.Add(ctx, p, AllPages(), OrientationAuto)
		require.NoError(t, err)
	}
	require.NoError(t, job.DuplexMerge(ctx, OrientationAuto))

	res, err := job.Save(ctx, filepath.Join(dir, "duplex.pdf"))
	require.NoError(t, err)
	n, err := api.PageCountFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	got := readSizes(t, res.Path)
	assert.InDelta(t, pdftest.A4.Width, got[3].Width, 0.01, "padding copies the last page size")
	assert.InDelta(t, pdftest.Letter.Width, got[4].Width, 0.01)
	assert.InDelta(t, pdftest.Landscape.Width, got[10].Width, 0.01)
}

func TestFpdiAddContentAndSelection(t *testing.T) {
	ctx := context.Background()
	job, dir := fpdiJob(t, nil)
	data, err := pdftest.Build(pdftest.A4, pdftest.Landscape, pdftest.Letter)
	require.NoError(t, err)

	_, err = job.AddContent(ctx, data, Pages(3, 2), OrientationAuto)
	require.NoError(t, err)
	require.NoError(t, job.Merge(ctx, OrientationAuto, false))

	out := filepath.Join(dir, "sel.pdf")
	_, err = job.Save(ctx, out)
	require.NoError(t, err)
	got := readSizes(t, out)
	require.Len(t, got, 2)
	assert.InDelta(t, pdftest.Letter.Height, got[0].Height, 0.01)
	assert.InDelta(t, pdftest.Landscape.Width, got[1].Width, 0.01)
}

func TestFpdiConvertsNewerSource(t *testing.T) {
	ctx := context.Background()
	job, dir := fpdiJob(t, normalize.Rewrite{})
	src := pdftest.WriteVersioned(t, dir, "new.pdf", "1.7", pdftest.A4, pdftest.A4)

	doc, err := job.Add(ctx, src, AllPages(), OrientationAuto)
	require.NoError(t, err)
	require.True(t, doc.Version.Converted)
	require.NoError(t, doc.Version.Err)
	assert.Len(t, job.TempFiles(), 1)

	require.NoError(t, job.Merge(ctx, OrientationAuto, false))
	data, err := job.Bytes()
	require.NoError(t, err)
	out := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(out, data, 0o644))
	assert.Len(t, readSizes(t, out), 2)
}
