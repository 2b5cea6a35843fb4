package script

import "errors"

// ErrScript indicates a script failed to compile or raised an error.
var ErrScript = errors.New("script error")
