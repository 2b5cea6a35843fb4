package editor

import "errors"

// Errors returned by the editor.
var (
	// ErrEditorClosed indicates the editor was closed.
	ErrEditorClosed = errors.New("editor closed")

	// ErrNoSelection indicates an operation needs a selection and there is none.
	ErrNoSelection = errors.New("no selection")
)
