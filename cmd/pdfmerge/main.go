// Package main provides the pdfmerge CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfmerge/config"
	"github.com/wudi/pdfmerge/observability"
	"github.com/wudi/pdfmerge/storage"
	"github.com/wudi/pdfmerge/storage/redisstore"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger observability.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfmerge",
		Short: "Merge pages from several PDF documents into one",
		Long: `pdfmerge assembles selected pages of several PDF documents into a single
document. Sources newer than PDF 1.4 are downgraded first, with Ghostscript
by default.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := cfg.Log.Level
			if verbose {
				level = "debug"
			}
			logger = observability.NewZerolog(observability.ZerologConfig{
				Level:   level,
				Format:  cfg.Log.Format,
				Output:  cmd.ErrOrStderr(),
				Service: "pdfmerge",
			})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: env vars only)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newMergeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openOutput returns the storage saved documents go to and a func releasing it.
func openOutput(ctx context.Context, c *config.Config) (storage.Storage, func(), error) {
	switch c.Storage.Driver {
	case "redis":
		st, err := redisstore.New(ctx, redisstore.Config{
			Addr:     c.Storage.Redis.Addr,
			Password: c.Storage.Redis.Password,
			DB:       c.Storage.Redis.DB,
			Prefix:   c.Storage.Redis.Prefix,
			TTL:      c.Storage.Redis.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Warn("close redis storage", observability.Error("error", err))
			}
		}, nil
	default:
		return storage.NewLocal(c.Storage.Root), func() {}, nil
	}
}
