package reconcile

import "log/slog"

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger for reconciliation summaries.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}
