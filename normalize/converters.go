package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultGhostscript is the binary looked up on PATH.
const DefaultGhostscript = "gs"

// Ghostscript converts by running the pdfwrite device as a subprocess. The call
// blocks until gs exits or ctx is done.
type Ghostscript struct {
	Binary string
	// Level is the target compatibility level, 1.4 when empty.
	Level string
}

func (g Ghostscript) args(in, out string) []string {
	level := g.Level
	if level == "" {
		level = Threshold.String()
	}
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=" + level,
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=" + out,
		in,
	}
}

func (g Ghostscript) Convert(ctx context.Context, in, out string) error {
	bin := g.Binary
	if bin == "" {
		bin = DefaultGhostscript
	}
	cmd := exec.CommandContext(ctx, bin, g.args(in, out)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ghostscript: %w: %s", err, msg)
		}
		return fmt.Errorf("ghostscript: %w", err)
	}
	return checkOutput(out)
}

// Rewrite converts in-process with pdfcpu, writing classic cross-reference tables
// without object streams. Compressed object and xref streams are what the template
// importer cannot read in newer files.
type Rewrite struct{}

func (Rewrite) Convert(_ context.Context, in, out string) error {
	ctx, err := api.ReadContextFile(in)
	if err != nil {
		return fmt.Errorf("rewrite: read %s: %w", in, err)
	}
	ctx.WriteObjectStream = false
	ctx.WriteXRefStream = false
	v := model.V14
	ctx.HeaderVersion = &v
	ctx.RootVersion = nil
	if err := api.WriteContextFile(ctx, out); err != nil {
		return fmt.Errorf("rewrite: write %s: %w", out, err)
	}
	return checkOutput(out)
}

func checkOutput(out string) error {
	info, err := os.Stat(out)
	if err != nil {
		return fmt.Errorf("converter produced no output: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("converter produced an empty file")
	}
	return nil
}
