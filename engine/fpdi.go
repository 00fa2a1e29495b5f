package engine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MediaBox is the page box templates are imported with.
const MediaBox = "/MediaBox"

var errNoSource = errors.New("no source file set")

// Fpdi implements Engine with gofpdf for output and gofpdi for template import.
// Page counts come from pdfcpu, which reports unreadable sources as errors instead of
// panicking.
type Fpdi struct {
	pdf *gofpdf.Fpdf
	imp *gofpdi.Importer

	source      string
	sourcePages int
	sizes       map[Template]Size
}

var _ Engine = (*Fpdi)(nil)

// NewFpdi returns an empty engine measuring in points.
func NewFpdi() *Fpdi {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &Fpdi{
		pdf:   pdf,
		imp:   gofpdi.NewImporter(),
		sizes: make(map[Template]Size),
	}
}

// FpdiFactory is an engine Factory producing Fpdi instances.
func FpdiFactory() Engine { return NewFpdi() }

// recoverInto turns a panic from the importer into an error. gofpdi panics on
// sources it cannot parse.
func recoverInto(err *error, format string, args ...interface{}) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: %v", fmt.Sprintf(format, args...), r)
	}
}

func (e *Fpdi) SetSourceFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(f, conf)
	if err != nil {
		return 0, fmt.Errorf("read page count of %s: %w", path, err)
	}
	e.source = path
	e.sourcePages = n
	return n, nil
}

func (e *Fpdi) ImportPage(page int) (tpl Template, err error) {
	if e.source == "" {
		return 0, errNoSource
	}
	if page < 1 || page > e.sourcePages {
		return 0, fmt.Errorf("page %d out of range 1..%d", page, e.sourcePages)
	}
	defer recoverInto(&err, "import page %d of %s", page, e.source)

	id := e.imp.ImportPage(e.pdf, e.source, page, MediaBox)
	if e.pdf.Err() {
		return 0, fmt.Errorf("import page %d of %s: %w", page, e.source, e.pdf.Error())
	}
	dims, ok := e.imp.GetPageSizes()[page][MediaBox]
	if !ok {
		return 0, fmt.Errorf("import page %d of %s: no %s", page, e.source, MediaBox)
	}
	tpl = Template(id)
	e.sizes[tpl] = Size{Width: dims["w"], Height: dims["h"]}
	return tpl, nil
}

func (e *Fpdi) TemplateSize(tpl Template) (Size, error) {
	size, ok := e.sizes[tpl]
	if !ok {
		return Size{}, fmt.Errorf("unknown template %d", tpl)
	}
	return size, nil
}

// AddPage sizes the page so that landscape pages are wider than tall and portrait
// pages taller than wide. gofpdf swaps width and height for "L".
func (e *Fpdi) AddPage(o Orientation, size Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("invalid page size %.2fx%.2f", size.Width, size.Height)
	}
	if o == Auto {
		o = size.Orientation()
	}
	short, long := size.Width, size.Height
	if short > long {
		short, long = long, short
	}
	e.pdf.AddPageFormat(string(o), gofpdf.SizeType{Wd: short, Ht: long})
	return e.pdf.Error()
}

func (e *Fpdi) UseTemplate(tpl Template) (err error) {
	size, ok := e.sizes[tpl]
	if !ok {
		return fmt.Errorf("unknown template %d", tpl)
	}
	if e.pdf.PageNo() == 0 {
		return errors.New("no output page to draw on")
	}
	defer recoverInto(&err, "use template %d", tpl)
	e.imp.UseImportedTemplate(e.pdf, int(tpl), 0, 0, size.Width, size.Height)
	return e.pdf.Error()
}

func (e *Fpdi) PageCount() int { return e.pdf.PageCount() }

// CurrentPageSize reports the size of the last added output page.
func (e *Fpdi) CurrentPageSize() Size {
	w, h := e.pdf.GetPageSize()
	return Size{Width: w, Height: h}
}

func (e *Fpdi) Output(w io.Writer) error {
	if err := e.pdf.Output(w); err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	return nil
}
