package merger

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/wudi/pdfmerge/observability"
)

// SaveResult describes a persisted output document.
type SaveResult struct {
	Path   string `json:"path"`
	Size   int    `json:"size"`
	Digest string `json:"blake2b"` // BLAKE2b-256, hex
}

// Bytes returns the merged document.
func (j *Job) Bytes() ([]byte, error) {
	if j.state != stateMerged {
		return nil, ErrNotMerged
	}
	return j.output, nil
}

// WriteTo writes the merged document to w.
func (j *Job) WriteTo(w io.Writer) (int64, error) {
	data, err := j.Bytes()
	if err != nil {
		return 0, err
	}
	return bytes.NewReader(data).WriteTo(w)
}

// Inline streams the document for display in the client.
func (j *Job) Inline(w http.ResponseWriter) error {
	return j.serve(w, "inline", j.fileName)
}

// Download streams the document as an attachment named name, or the job's file
// name when name is empty.
func (j *Job) Download(w http.ResponseWriter, name string) error {
	if name == "" {
		name = j.fileName
	}
	return j.serve(w, "attachment", name)
}

func (j *Job) serve(w http.ResponseWriter, disposition, name string) error {
	data, err := j.Bytes()
	if err != nil {
		return err
	}
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Content-Disposition", contentDisposition(disposition, name))
	h.Set("Cache-Control", "private, must-revalidate, max-age=1")
	h.Set("Pragma", "public")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Save persists the document through the output storage at path, or at the job's
// file name when path is empty.
func (j *Job) Save(ctx context.Context, path string) (SaveResult, error) {
	data, err := j.Bytes()
	if err != nil {
		return SaveResult{}, err
	}
	if path == "" {
		path = j.fileName
	}
	if err := j.opts.Output.Put(ctx, path, data); err != nil {
		return SaveResult{}, fmt.Errorf("save %s: %w", path, err)
	}
	sum := blake2b.Sum256(data)
	res := SaveResult{Path: path, Size: len(data), Digest: hex.EncodeToString(sum[:])}
	j.logger.Info("saved merged document",
		observability.String("path", path),
		observability.Int("bytes", res.Size),
		observability.String("blake2b", res.Digest))
	return res, nil
}

// contentDisposition builds the header value with an ASCII filename and, when the
// name needs it, an RFC 5987 filename* parameter carrying the original.
func contentDisposition(disposition, name string) string {
	fallback := asciiFileName(name)
	v := mime.FormatMediaType(disposition, map[string]string{"filename": fallback})
	if v == "" {
		v = disposition + `; filename="` + DefaultFileName + `"`
	}
	if fallback != name {
		v += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return v
}

// asciiFileName folds accents away and replaces whatever is left outside printable
// ASCII with underscores.
func asciiFileName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, folded)
	if strings.Trim(folded, "_ ") == "" {
		return DefaultFileName
	}
	return folded
}
