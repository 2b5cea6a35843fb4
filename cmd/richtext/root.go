package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/richtext/internal/config"
	"github.com/dshills/richtext/internal/logging"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "richtext",
		Short: "Build and render rich-text documents",
		Long: `richtext builds a document from node descriptions, commits it through
the editor engine and prints the rendered HTML.

Node descriptions:
  paragraph               start a new paragraph
  text:CONTENT            a text node
  text[bold|italic]:CONTENT
                          a formatted text node
  link:TEXT,URL           a link
  linebreak               a line break

Leaf nodes given before any paragraph go into an implicit one.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	cmd.AddCommand(newRenderCmd(opts), newWatchCmd(opts), newVersionCmd())
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// load reads the configuration and builds the logger it asks for.
// Logs go to the command's error stream.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = c
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return cfg, logging.NewWriter(cmd.ErrOrStderr(), cfg.Level()), nil
}
