package editor

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/metrics"
	"github.com/dshills/richtext/internal/theme"
)

// Option configures an Editor during creation.
type Option func(*Editor)

// WithRegistry sets the node type registry. The default holds the
// paragraph, text, link and line break types.
func WithRegistry(reg *node.Registry) Option {
	return func(e *Editor) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithTheme sets the initial theme.
func WithTheme(th theme.Theme) Option {
	return func(e *Editor) {
		e.theme = th.Clone()
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Editor) {
		e.metrics = c
	}
}

// WithRootElement mounts the editor into host on creation.
func WithRootElement(host *html.Node) Option {
	return func(e *Editor) {
		e.host = host
	}
}

// WithStateValidation validates every invariant of each committed state,
// not only the touched region. It is meant for tests.
func WithStateValidation() Option {
	return func(e *Editor) {
		e.validate = true
	}
}
