package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfmerge/engine"
	"github.com/wudi/pdfmerge/merger"
)

// input is one positional argument of the merge command.
type input struct {
	path        string
	pages       merger.PageSelection
	orientation merger.Orientation
}

// parseInput reads path[:pages[:orientation]], e.g. "a.pdf:1-3,7:L".
func parseInput(arg string) (input, error) {
	parts := strings.SplitN(arg, ":", 3)
	in := input{path: parts[0], pages: merger.AllPages()}
	if in.path == "" {
		return in, fmt.Errorf("%q: empty path", arg)
	}
	if len(parts) > 1 {
		sel, err := merger.ParsePages(parts[1])
		if err != nil {
			return in, fmt.Errorf("%q: %w", arg, err)
		}
		in.pages = sel
	}
	if len(parts) > 2 {
		o, err := engine.ParseOrientation(parts[2])
		if err != nil {
			return in, fmt.Errorf("%q: %w", arg, err)
		}
		in.orientation = o
	}
	return in, nil
}

func newMergeCmd() *cobra.Command {
	var (
		out         string
		duplex      bool
		orientation string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "merge [flags] input...",
		Short: "Merge documents into one",
		Long: `Merge appends the selected pages of every input, in argument order.

Each input is path[:pages[:orientation]]. Pages is "all" or a comma separated
list of numbers and ranges ("1-3,7,2"); duplicates and any order are allowed.
Orientation is P or L and overrides --orientation for that input.`,
		Example: `  pdfmerge merge -o out.pdf cover.pdf report.pdf:2-5 appendix.pdf:1:L
  pdfmerge merge --duplex -o booklet.pdf a.pdf b.pdf c.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			def, err := engine.ParseOrientation(orientation)
			if err != nil {
				return err
			}
			inputs := make([]input, 0, len(args))
			for _, a := range args {
				in, err := parseInput(a)
				if err != nil {
					return err
				}
				inputs = append(inputs, in)
			}

			output, release, err := openOutput(ctx, cfg)
			if err != nil {
				return err
			}
			defer release()

			opts := merger.Options{
				ScratchDir: cfg.Scratch.Dir,
				Output:     output,
				Converter:  cfg.NewConverter(),
				FileName:   cfg.Output.FileName,
				Logger:     logger,
			}
			return merger.WithJob(opts, func(job *merger.Job) error {
				for _, in := range inputs {
					if _, err := job.Add(ctx, in.path, in.pages, in.orientation); err != nil {
						return err
					}
				}
				if err := job.Merge(ctx, def, duplex); err != nil {
					return err
				}
				res, err := job.Save(ctx, out)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes, blake2b %s)\n", res.Path, res.Size, res.Digest)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: configured file name)")
	cmd.Flags().BoolVar(&duplex, "duplex", false, "pad odd-length inputs with a blank page")
	cmd.Flags().StringVar(&orientation, "orientation", "", "default orientation, P or L (default: from page geometry)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the save result as JSON")

	return cmd
}
