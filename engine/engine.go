// Package engine wraps the low-level page template engine the merger drives.
//
// An Engine instance holds one output document under construction plus the state
// of the current source file. Instances must not be shared between jobs.
package engine

import (
	"fmt"
	"io"
	"strings"
)

// Orientation of an output page. The zero value means "decide from geometry".
type Orientation string

const (
	Auto      Orientation = ""
	Portrait  Orientation = "P"
	Landscape Orientation = "L"
)

// ParseOrientation accepts P, L, portrait, landscape (any case) and the empty string.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Auto, nil
	case "p", "portrait":
		return Portrait, nil
	case "l", "landscape":
		return Landscape, nil
	}
	return Auto, fmt.Errorf("unknown orientation %q", s)
}

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case Landscape:
		return "landscape"
	}
	return "auto"
}

// Size is a page size in points.
type Size struct {
	Width  float64
	Height float64
}

// Orientation derives the orientation from the aspect ratio: landscape iff wider
// than tall.
func (s Size) Orientation() Orientation {
	if s.Width > s.Height {
		return Landscape
	}
	return Portrait
}

// Template is an opaque handle to one imported page.
type Template int

// Engine is the template import and page output surface used by the merger.
type Engine interface {
	// SetSourceFile makes path the current extraction source and returns its page count.
	SetSourceFile(path string) (int, error)
	// ImportPage imports a 1-based page of the current source.
	ImportPage(page int) (Template, error)
	TemplateSize(tpl Template) (Size, error)
	// AddPage appends an output page of the given size, turned to o.
	AddPage(o Orientation, size Size) error
	// UseTemplate draws tpl onto the current output page at its natural size.
	UseTemplate(tpl Template) error
	// PageCount reports the number of output pages so far.
	PageCount() int
	// Output renders the document. It may be called once.
	Output(w io.Writer) error
}

// Factory creates a fresh engine for each job.
type Factory func() Engine
