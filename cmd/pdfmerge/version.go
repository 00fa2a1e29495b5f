package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfmerge/normalize"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version file...",
		Short: "Print the declared PDF version of each file",
		Long: `Version reads only the header line of each file and reports whether merge
would downgrade it first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tVERSION\tCONVERT")
			for _, path := range args {
				v, ok, err := normalize.ReadVersion(path)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(w, "%s\t-\tno\n", path)
					continue
				}
				convert := "no"
				if v.Compare(normalize.Threshold) > 0 {
					convert = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", path, v, convert)
			}
			return w.Flush()
		},
	}
}
