package node

import "errors"

// Errors returned by node operations.
var (
	// ErrInvalidArgument indicates a factory or mutator received an unusable argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalMutation indicates a mutator was called without an active transaction.
	ErrIllegalMutation = errors.New("illegal mutation outside of an update")

	// ErrNodeNotFound indicates a key does not resolve in the relevant state.
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnknownType indicates a node type is not registered.
	ErrUnknownType = errors.New("unknown node type")

	// ErrDuplicateType indicates a type tag was registered twice.
	ErrDuplicateType = errors.New("node type already registered")

	// ErrNotElement indicates an operation requires an element node.
	ErrNotElement = errors.New("node is not an element")
)
