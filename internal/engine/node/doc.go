// Package node defines the polymorphic content node contract of the
// editing engine.
//
// # Identity and Versions
//
// Every node has a Key, allocated once per editor instance and never
// reused, and an immutable type tag. A key names a node across versions:
// a published EditorState holds exactly one version per key, and a
// transaction that mutates a node clones it into the draft first. The
// frozen version is never modified.
//
// Getters on a node (Flags, Parent, payload accessors) resolve the latest
// version of the key through the node's Owner: the draft while a
// transaction is active, otherwise the published state. Mutators resolve
// a writable version through Owner.Writable and fail with
// ErrIllegalMutation when no transaction is active.
//
// # Implementing a Type
//
// Concrete types embed Base (leaves) or Element (nodes with children),
// implement Clone, TextContent, CreateDOM, UpdateDOM and
// CanInsertTextAtEnd, and register a Class with a Registry:
//
//	type Quote struct{ node.Element }
//
//	func NewQuote(o node.Owner) (*Quote, error) {
//	    q := &Quote{}
//	    if err := node.Init(o, q, "quote"); err != nil {
//	        return nil, err
//	    }
//	    return q, nil
//	}
//
// Structural edges are keys, never pointers: an element lists child keys
// and a child names its parent key. Cycles are rejected by the mutators
// in this package.
package node
