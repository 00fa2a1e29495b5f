package merger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wudi/pdfmerge/engine"
	"github.com/wudi/pdfmerge/observability"
)

// Merge extracts the selected pages of every document in registration order into
// the output document.
//
// Orientation per page is the document's override, else def, else landscape iff the
// page is wider than tall. With duplex set, a document contributing an odd number
// of pages is followed by a blank page of its last page's size, unless it is the
// last document.
//
// Any failure aborts the merge and leaves the job unusable; start a new job (or
// Reset) to retry. A successful merge is final as well.
func (j *Job) Merge(ctx context.Context, def Orientation, duplex bool) (err error) {
	if err := j.checkOpen(); err != nil {
		return err
	}
	if err := validateOrientation(def); err != nil {
		return err
	}
	if len(j.docs) == 0 {
		return ErrEmptyJob
	}

	ctx, span := j.opts.Tracer.StartSpan(ctx, observability.SpanMerge)
	span.SetTag(observability.TagDocuments, len(j.docs))
	span.SetTag(observability.TagDuplex, duplex)
	start := time.Now()
	defer func() {
		if err != nil {
			j.state = stateFailed
			span.SetError(err)
			j.logger.Error("merge failed", observability.Error("error", err))
		}
		span.Finish()
	}()

	blanks := 0
	for i, doc := range j.docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		padded, err := j.mergeDocument(doc, def, duplex && i < len(j.docs)-1)
		if err != nil {
			return err
		}
		if padded {
			blanks++
		}
	}

	var buf bytes.Buffer
	if err := j.engine.Output(&buf); err != nil {
		return err
	}
	j.output = buf.Bytes()
	j.state = stateMerged

	pages := j.engine.PageCount()
	span.SetTag(observability.TagPages, pages)
	span.SetTag(observability.TagBlankPages, blanks)
	j.logger.Info("merged documents",
		observability.Int("documents", len(j.docs)),
		observability.Int("pages", pages),
		observability.Int("blank_pages", blanks),
		observability.Bool("duplex", duplex),
		observability.Int("bytes", len(j.output)),
		observability.Duration("elapsed", time.Since(start)))
	return nil
}

// DuplexMerge is Merge with duplex padding enabled.
func (j *Job) DuplexMerge(ctx context.Context, def Orientation) error {
	return j.Merge(ctx, def, true)
}

// effectiveOrientation applies override > merge default > page geometry.
func effectiveOrientation(override, def Orientation, size engine.Size) Orientation {
	if override != OrientationAuto {
		return override
	}
	if def != OrientationAuto {
		return def
	}
	return size.Orientation()
}

// mergeDocument appends one source and reports whether a padding page followed it.
// A document that contributes no pages never needs padding, so the padding page
// always has a size to copy.
func (j *Job) mergeDocument(doc *Document, def Orientation, pad bool) (bool, error) {
	count, err := j.engine.SetSourceFile(doc.Path)
	if err != nil {
		return false, doc.extractionError(fmt.Errorf("open %s: %w", doc.Source, err))
	}
	pages, err := doc.Pages.resolve(doc.Source, count)
	if err != nil {
		return false, err
	}

	var (
		last       engine.Size
		lastOrient Orientation
	)
	for _, p := range pages {
		tpl, err := j.engine.ImportPage(p)
		if err != nil {
			return false, doc.extractionError(fmt.Errorf("import page %d of %s: %w", p, doc.Source, err))
		}
		size, err := j.engine.TemplateSize(tpl)
		if err != nil {
			return false, fmt.Errorf("size of page %d of %s: %w", p, doc.Source, err)
		}
		orient := effectiveOrientation(doc.Orientation, def, size)
		if err := j.engine.AddPage(orient, size); err != nil {
			return false, fmt.Errorf("add page for %s page %d: %w", doc.Source, p, err)
		}
		if err := j.engine.UseTemplate(tpl); err != nil {
			return false, fmt.Errorf("draw page %d of %s: %w", p, doc.Source, err)
		}
		last, lastOrient = size, orient
	}

	if !pad || len(pages)%2 == 0 {
		return false, nil
	}
	if err := j.engine.AddPage(lastOrient, last); err != nil {
		return false, fmt.Errorf("add padding page after %s: %w", doc.Source, err)
	}
	return true, nil
}

// extractionError attributes err to a failed conversion when there was one.
func (d *Document) extractionError(err error) error {
	if d.Version.Err == nil {
		return err
	}
	return fmt.Errorf("%w: %s: %w: %w", ErrNormalization, d.Source, d.Version.Err, err)
}
