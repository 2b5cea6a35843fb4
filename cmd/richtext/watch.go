package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dshills/richtext/internal/config"
	"github.com/dshills/richtext/internal/engine/editor"
	"github.com/dshills/richtext/internal/metrics"
)

type watchOptions struct {
	addr     string
	sanitize bool
	debounce time.Duration
}

func newWatchCmd(g *globalOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <node>...",
		Short: "Re-render a document whenever its theme changes",
		Long: `The watch command renders a document, then watches the configuration
file and re-renders with the new theme each time it changes. Invalid
configurations are logged and skipped.

When metrics are enabled in the configuration, or --addr is given, an
HTTP server exposes update metrics at /metrics and the current rendering
at /document.

Example:
  richtext watch -c richtext.toml paragraph text:hello
  richtext watch -c richtext.toml --addr :9090 text:hello`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath == "" {
				return fmt.Errorf("watch requires --config")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, g, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Serve metrics and the document on this address")
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, "Pass the output through the HTML sanitizer")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", config.DefaultDebounce, "Delay before reloading a changed configuration")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, g *globalOptions, opts *watchOptions, args []string) error {
	items, err := parseItems(args)
	if err != nil {
		return err
	}
	cfg, logger, err := g.load(cmd)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	e, err := newDocument(ctx, cfg, logger, nil, []editor.Option{editor.WithMetrics(collector)}, func(tx *editor.Txn) error {
		return build(tx, items)
	})
	if err != nil {
		return err
	}
	defer e.Close()
	if err := writeHTML(ctx, out, e, opts.sanitize); err != nil {
		return err
	}

	addr := opts.addr
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		stopServer, bound, err := serve(addr, newRouter(reg, e, opts.sanitize))
		if err != nil {
			return err
		}
		defer stopServer()
		logger.Info("serving", "addr", bound)
	}

	err = config.Watch(ctx, g.configPath, func(c *config.Config) {
		if err := e.SetTheme(ctx, c.Theme); err != nil {
			logger.Error("applying theme", "error", err)
			return
		}
		logger.Info("theme applied", "names", c.Theme.Names())
		if err := writeHTML(ctx, out, e, opts.sanitize); err != nil {
			logger.Error("rendering", "error", err)
		}
	},
		config.WithDebounce(opts.debounce),
		config.WithWatchLogger(logger),
		config.WithErrorHandler(func(err error) {
			logger.Error("reloading config", "error", err)
		}),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newRouter exposes reg at /metrics and e's rendering at /document.
func newRouter(reg *prometheus.Registry, e *editor.Editor, sanitize bool) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/document", func(w http.ResponseWriter, r *http.Request) {
		out, err := renderHTML(r.Context(), e, sanitize)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, out)
	})
	return r
}

// serve starts an HTTP server for h and returns a function shutting it
// down together with the bound address.
func serve(addr string, h http.Handler) (func(), string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listener: %w", err)
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = srv.Serve(ln)
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, ln.Addr().String(), nil
}
