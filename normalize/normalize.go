// Package normalize downgrades source documents whose declared version is newer than
// the template importer understands.
//
// Only the header line is inspected. A document above Threshold is handed to a
// Converter together with a freshly reserved scratch path; the converted path is
// returned even when the converter fails, so the failure shows up when the merge
// tries to open it.
package normalize

import (
	"context"

	"github.com/wudi/pdfmerge/observability"
)

// Converter rewrites in into out in a dialect the importer can read.
type Converter interface {
	Convert(ctx context.Context, in, out string) error
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, in, out string) error

func (f ConverterFunc) Convert(ctx context.Context, in, out string) error { return f(ctx, in, out) }

// Reserver hands out registered scratch paths. *tempfile.Store implements it.
type Reserver interface {
	Reserve(ctx context.Context) (string, error)
}

// Result describes what Normalize did with one source.
type Result struct {
	Path       string // path to use for extraction
	Original   string
	Version    Version
	HasVersion bool
	Converted  bool
	// Err is the converter failure, if any. It is not returned from Normalize.
	Err error
}

// Normalizer decides per document whether conversion is needed.
type Normalizer struct {
	converter Converter
	reserver  Reserver
	threshold Version
	logger    observability.Logger
	tracer    observability.Tracer
}

// New returns a normalizer. A nil converter disables conversion entirely.
func New(converter Converter, reserver Reserver) *Normalizer {
	return &Normalizer{
		converter: converter,
		reserver:  reserver,
		threshold: Threshold,
		logger:    observability.NopLogger{},
		tracer:    observability.NopTracer(),
	}
}

func (n *Normalizer) WithLogger(l observability.Logger) *Normalizer {
	if l != nil {
		n.logger = l
	}
	return n
}

func (n *Normalizer) WithTracer(t observability.Tracer) *Normalizer {
	if t != nil {
		n.tracer = t
	}
	return n
}

func (n *Normalizer) WithThreshold(v Version) *Normalizer {
	n.threshold = v
	return n
}

// Normalize returns the path to extract from. Errors are limited to reading the
// header and reserving scratch space.
func (n *Normalizer) Normalize(ctx context.Context, path string) (Result, error) {
	ctx, span := n.tracer.StartSpan(ctx, observability.SpanNormalize)
	defer span.Finish()
	span.SetTag(observability.TagSourcePath, path)

	res := Result{Path: path, Original: path}
	v, ok, err := ReadVersion(path)
	if err != nil {
		span.SetError(err)
		return res, err
	}
	res.Version, res.HasVersion = v, ok
	if !ok {
		n.logger.Debug("no version in header", observability.String("path", path))
		return res, nil
	}
	span.SetTag(observability.TagPDFVersion, v.String())
	if v.Compare(n.threshold) <= 0 {
		return res, nil
	}
	if n.converter == nil {
		n.logger.Debug("conversion disabled", observability.String("path", path), observability.String("version", v.String()))
		return res, nil
	}

	out, err := n.reserver.Reserve(ctx)
	if err != nil {
		span.SetError(err)
		return res, err
	}
	res.Path, res.Converted = out, true
	span.SetTag(observability.TagConverted, true)

	if err := n.converter.Convert(ctx, path, out); err != nil {
		res.Err = err
		n.logger.Warn("version conversion failed",
			observability.String("path", path),
			observability.String("version", v.String()),
			observability.Error("error", err))
		return res, nil
	}
	n.logger.Info("converted source document",
		observability.String("path", path),
		observability.String("from", v.String()),
		observability.String("to", n.threshold.String()),
		observability.String("output", out))
	return res, nil
}
