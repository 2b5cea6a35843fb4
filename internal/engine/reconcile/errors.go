package reconcile

import "errors"

// Errors returned by the reconciler.
var (
	// ErrReconciliation indicates the rendered tree could not be patched.
	// The tree is left as it was.
	ErrReconciliation = errors.New("reconciliation failed")

	// ErrMissingElement indicates a key of the previous state has no
	// rendered element, or its element is not where the state says.
	ErrMissingElement = errors.New("rendered element not found")
)
