package merger

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/wudi/pdfmerge/engine"
	"github.com/wudi/pdfmerge/normalize"
)

// Fake sources are a header line followed by one "WxH" line per page.

func writeSource(t *testing.T, dir, name, version string, sizes ...engine.Size) string {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "%%PDF-%s\n", version)
	for _, s := range sizes {
		fmt.Fprintf(&b, "%gx%g\n", s.Width, s.Height)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func sizes(s engine.Size, n int) []engine.Size {
	out := make([]engine.Size, n)
	for i := range out {
		out[i] = s
	}
	return out
}

var (
	portraitSize  = engine.Size{Width: 600, Height: 800}
	landscapeSize = engine.Size{Width: 800, Height: 600}
)

type fakeTemplate struct {
	source string
	page   int
	size   engine.Size
}

type fakePage struct {
	orientation engine.Orientation
	size        engine.Size
	blank       bool
	source      string
	page        int
}

type fakeEngine struct {
	source    string
	pages     []engine.Size
	templates []fakeTemplate
	out       []fakePage
	rendered  bool
}

func (e *fakeEngine) SetSourceFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() || !strings.HasPrefix(sc.Text(), "%PDF-") {
		return 0, fmt.Errorf("%s: missing header", path)
	}
	var pages []engine.Size
	for sc.Scan() {
		w, h, ok := strings.Cut(sc.Text(), "x")
		if !ok {
			return 0, fmt.Errorf("%s: bad page line %q", path, sc.Text())
		}
		width, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return 0, err
		}
		height, err := strconv.ParseFloat(h, 64)
		if err != nil {
			return 0, err
		}
		pages = append(pages, engine.Size{Width: width, Height: height})
	}
	e.source, e.pages = path, pages
	return len(pages), nil
}

func (e *fakeEngine) ImportPage(page int) (engine.Template, error) {
	if page < 1 || page > len(e.pages) {
		return 0, fmt.Errorf("page %d out of range", page)
	}
	e.templates = append(e.templates, fakeTemplate{source: e.source, page: page, size: e.pages[page-1]})
	return engine.Template(len(e.templates) - 1), nil
}

func (e *fakeEngine) TemplateSize(tpl engine.Template) (engine.Size, error) {
	if int(tpl) >= len(e.templates) {
		return engine.Size{}, fmt.Errorf("unknown template %d", tpl)
	}
	return e.templates[tpl].size, nil
}

func (e *fakeEngine) AddPage(o engine.Orientation, size engine.Size) error {
	e.out = append(e.out, fakePage{orientation: o, size: size, blank: true})
	return nil
}

func (e *fakeEngine) UseTemplate(tpl engine.Template) error {
	if len(e.out) == 0 {
		return fmt.Errorf("no page")
	}
	t := e.templates[tpl]
	p := &e.out[len(e.out)-1]
	p.blank, p.source, p.page = false, t.source, t.page
	return nil
}

func (e *fakeEngine) PageCount() int { return len(e.out) }

func (e *fakeEngine) Output(w io.Writer) error {
	if e.rendered {
		return fmt.Errorf("already rendered")
	}
	e.rendered = true
	_, err := fmt.Fprintf(w, "%%PDF-1.4\n%% %d pages\n", len(e.out))
	return err
}

// engines records every engine a job's factory creates.
type engines struct{ all []*fakeEngine }

func (e *engines) factory() engine.Engine {
	fe := &fakeEngine{}
	e.all = append(e.all, fe)
	return fe
}

func (e *engines) last() *fakeEngine { return e.all[len(e.all)-1] }

// copyConverter rewrites the header to 1.4 and keeps the pages.
var copyConverter = normalize.ConverterFunc(func(_ context.Context, in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	_, rest, _ := bytes.Cut(data, []byte("\n"))
	return os.WriteFile(out, append([]byte("%PDF-1.4\n"), rest...), 0o644)
})

type fixture struct {
	dir     string
	job     *Job
	engines *engines
}

func newFixture(t *testing.T, conv normalize.Converter) *fixture {
	t.Helper()
	dir := t.TempDir()
	eng := &engines{}
	job := New(Options{
		ScratchDir: filepath.Join(dir, "scratch"),
		Converter:  conv,
		Engine:     eng.factory,
	})
	t.Cleanup(func() { job.Close() })
	return &fixture{dir: dir, job: job, engines: eng}
}

func (f *fixture) source(t *testing.T, name, version string, sizes ...engine.Size) string {
	t.Helper()
	return writeSource(t, f.dir, name, version, sizes...)
}
