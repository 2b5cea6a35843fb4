// Package state provides the immutable editor state snapshot.
//
// An EditorState maps keys to exactly one node version, names the root
// key, and carries an optional Selection. States are never modified after
// construction: a transaction produces the next state with Apply, which
// layers the changed entries over the previous map. Unchanged versions are
// shared between consecutive states, so building the next state costs
// O(changed nodes). Layers are flattened once the chain grows past a
// fixed depth, which keeps lookups bounded.
//
// Structural edges are keys. Apply validates the touched region: every
// changed element's children resolve and point back at it, every changed
// child is listed by its parent, and no parent chain loops.
package state
