package merger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a registered source path does not exist.
	ErrNotFound = errors.New("source document not found")
	// ErrValidation means a page selection or orientation was malformed.
	ErrValidation = errors.New("invalid document settings")
	// ErrPageNotFound is matched by *PageNotFoundError.
	ErrPageNotFound = errors.New("page not found")
	// ErrEmptyJob is returned by Merge when nothing is registered.
	ErrEmptyJob = errors.New("no documents to merge")
	// ErrNormalization wraps extraction failures of sources whose conversion failed.
	ErrNormalization = errors.New("normalization failed")
	// ErrNotMerged is returned by the output methods before a successful Merge.
	ErrNotMerged = errors.New("document has not been merged")
	// ErrJobClosed is returned once a job has merged, failed or been closed.
	ErrJobClosed = errors.New("merge job is no longer open")
)

// PageNotFoundError reports a selected page outside a source's page range.
type PageNotFoundError struct {
	Source string
	Page   int
	Count  int
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %d not found in %s (%d pages)", e.Page, e.Source, e.Count)
}

func (e *PageNotFoundError) Is(target error) bool { return target == ErrPageNotFound }
