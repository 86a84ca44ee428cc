// Package cli implements the meetingctl command line.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"meeting-insights-go/internal/app"
	"meeting-insights-go/internal/config"
	"meeting-insights-go/internal/logger"
)

type rootOptions struct {
	configFile string
	verbose    bool
	progress   bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "meetingctl",
		Short: "Turn meeting recordings into a summary and action items",
		Long: `Turn meeting recordings into a summary and action items.

Audio is routed to a transcription backend by size, long transcripts are
split into chunks, and action items from every chunk are merged.
Settings come from .env, CONFIG_FILE and the environment.`,
		SilenceUsage:     true,
		TraverseChildren: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "V", false, "verbose output")
	root.PersistentFlags().BoolVar(&opts.progress, "progress", false, "force progress bars even without a terminal")

	root.AddCommand(newProcessCmd(opts), newRouteCmd(opts), newBatchCmd(opts))
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *rootOptions) logger(w io.Writer) *logger.Logger {
	log := logger.NewWithOutput(w)
	switch {
	case o.verbose:
		log.Logger.SetLevel(logrus.DebugLevel)
	case os.Getenv("LOG_LEVEL") == "":
		log.Logger.SetLevel(logrus.WarnLevel)
	}
	return log
}

func (o *rootOptions) build(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	if o.configFile != "" {
		if err := os.Setenv("CONFIG_FILE", o.configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, o.logger(cmd.ErrOrStderr()))
}
