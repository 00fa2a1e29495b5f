// Package merger assembles pages from several source documents into one output
// document.
//
// A Job owns an ordered document registry, the scratch files created while
// registering, and one template engine instance. Register sources with Add or
// AddContent, call Merge once, then read the result through Bytes, Inline,
// Download or Save. Close the job to remove its scratch files:
//
//	job := merger.NewDefault()
//	defer job.Close()
//	if _, err := job.Add(ctx, "a.pdf", merger.AllPages(), merger.OrientationAuto); err != nil {
//		return err
//	}
//	if err := job.Merge(ctx, merger.OrientationAuto, false); err != nil {
//		return err
//	}
//	_, err := job.Save(ctx, "out.pdf")
//
// A Job is not safe for concurrent use. Separate jobs share nothing and may run
// in parallel.
package merger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wudi/pdfmerge/engine"
	"github.com/wudi/pdfmerge/normalize"
	"github.com/wudi/pdfmerge/observability"
	"github.com/wudi/pdfmerge/storage"
	"github.com/wudi/pdfmerge/tempfile"
)

// Orientation re-exports engine.Orientation for callers of this package.
type Orientation = engine.Orientation

const (
	OrientationAuto = engine.Auto
	Portrait        = engine.Portrait
	Landscape       = engine.Landscape
)

// DefaultFileName names output when nothing else is set.
const DefaultFileName = "merged.pdf"

// Options configures a Job. Zero fields take the defaults noted on each field.
type Options struct {
	// ScratchDir holds staged and converted files. Default: $TMPDIR/pdfmerge.
	ScratchDir string
	// Scratch backs staging. It must map paths onto the local filesystem because the
	// engine opens sources by path. Default: storage.NewLocal("").
	Scratch storage.Storage
	// Output backs Save. Default: Scratch.
	Output storage.Storage
	// Converter downgrades newer sources; nil disables conversion.
	Converter normalize.Converter
	// Engine creates the job's template engine. Default: engine.FpdiFactory.
	Engine engine.Factory
	// FileName is the default name for Download and Save. Default: DefaultFileName.
	FileName string
	Logger   observability.Logger
	Tracer   observability.Tracer
}

// DefaultOptions converts with Ghostscript and writes to the local filesystem.
func DefaultOptions() Options {
	return Options{Converter: normalize.Ghostscript{}}
}

func (o Options) withDefaults() Options {
	if o.ScratchDir == "" {
		o.ScratchDir = filepath.Join(os.TempDir(), "pdfmerge")
	}
	if o.Scratch == nil {
		o.Scratch = storage.NewLocal("")
	}
	if o.Output == nil {
		o.Output = o.Scratch
	}
	if o.Engine == nil {
		o.Engine = engine.FpdiFactory
	}
	if o.FileName == "" {
		o.FileName = DefaultFileName
	}
	if o.Logger == nil {
		o.Logger = observability.NopLogger{}
	}
	if o.Tracer == nil {
		o.Tracer = observability.NopTracer()
	}
	return o
}

type jobState int

const (
	stateOpen jobState = iota
	stateMerged
	stateFailed
)

// Document is one registered source.
type Document struct {
	// Source is the path as registered; Path is the one pages are extracted from,
	// which differs when the source was converted.
	Source      string
	Path        string
	Pages       PageSelection
	Orientation Orientation
	Version     normalize.Result
}

// Job is a single merge: registry, scratch files, engine and output.
type Job struct {
	id         string
	opts       Options
	logger     observability.Logger
	temp       *tempfile.Store
	normalizer *normalize.Normalizer
	engine     engine.Engine

	docs     []*Document
	state    jobState
	closed   bool
	output   []byte
	fileName string
}

// New creates an empty job.
func New(opts Options) *Job {
	opts = opts.withDefaults()
	id := uuid.NewString()
	logger := opts.Logger.With(observability.String("job", id))
	temp := tempfile.New(opts.ScratchDir, opts.Scratch).WithLogger(logger)
	return &Job{
		id:     id,
		opts:   opts,
		logger: logger,
		temp:   temp,
		normalizer: normalize.New(opts.Converter, temp).
			WithLogger(logger).
			WithTracer(opts.Tracer),
		engine:   opts.Engine(),
		fileName: opts.FileName,
	}
}

// NewDefault creates a job with DefaultOptions.
func NewDefault() *Job { return New(DefaultOptions()) }

// WithJob runs fn with a fresh job and removes the job's scratch files on every
// return path.
func WithJob(opts Options, fn func(*Job) error) error {
	job := New(opts)
	defer job.Close()
	return fn(job)
}

// ID identifies the job in logs.
func (j *Job) ID() string { return j.id }

// FileName returns the default output name.
func (j *Job) FileName() string { return j.fileName }

// SetFileName changes the default output name used by Download and Save.
func (j *Job) SetFileName(name string) {
	if name != "" {
		j.fileName = name
	}
}

// Documents returns the registered documents in output order.
func (j *Job) Documents() []*Document {
	out := make([]*Document, len(j.docs))
	copy(out, j.docs)
	return out
}

// TempFiles lists the scratch files registered so far.
func (j *Job) TempFiles() []string { return j.temp.Paths() }

func (j *Job) checkOpen() error {
	if j.closed || j.state != stateOpen {
		return ErrJobClosed
	}
	return nil
}

func validateOrientation(o Orientation) error {
	switch o {
	case OrientationAuto, Portrait, Landscape:
		return nil
	}
	return fmt.Errorf("%w: unknown orientation %q", ErrValidation, string(o))
}

// Add registers the file at path. The path must exist; sources declaring a version
// above the normalizer threshold are converted first.
func (j *Job) Add(ctx context.Context, path string, pages PageSelection, orientation Orientation) (*Document, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	ok, err := j.opts.Scratch.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	res, err := j.normalizer.Normalize(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	if err := pages.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := validateOrientation(orientation); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc := &Document{
		Source:      path,
		Path:        res.Path,
		Pages:       pages,
		Orientation: orientation,
		Version:     res,
	}
	j.docs = append(j.docs, doc)
	j.logger.Debug("registered document",
		observability.String("source", path),
		observability.String("path", res.Path),
		observability.String("pages", pages.String()),
		observability.Bool("converted", res.Converted))
	return doc, nil
}

// AddContent stages data as a scratch file and registers it like Add.
func (j *Job) AddContent(ctx context.Context, data []byte, pages PageSelection, orientation Orientation) (*Document, error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}
	path, err := j.temp.Stage(ctx, data)
	if err != nil {
		return nil, err
	}
	return j.Add(ctx, path, pages, orientation)
}

// Reset empties the registry and starts a new output document so the job can be
// used again. Scratch files stay registered until Close.
func (j *Job) Reset() {
	j.docs = nil
	j.output = nil
	j.state = stateOpen
	j.engine = j.opts.Engine()
}

// Close removes every scratch file the job created. It is safe to call more than
// once; merged output stays readable.
func (j *Job) Close() error {
	j.temp.Cleanup(context.Background())
	j.closed = true
	return nil
}
