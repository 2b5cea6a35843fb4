package reconcile

import (
	"fmt"

	"github.com/dshills/richtext/internal/engine/node"
)

// OpKind identifies a primitive tree operation.
type OpKind uint8

const (
	// OpCreate indicates an element was created and inserted.
	OpCreate OpKind = iota

	// OpPatch indicates UpdateDOM patched an element in place.
	OpPatch

	// OpMove indicates an existing element changed position among its siblings.
	OpMove

	// OpRemove indicates an element was removed with its subtree.
	OpRemove
)

// String returns the string representation of the kind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpPatch:
		return "patch"
	case OpMove:
		return "move"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Op is one applied operation.
type Op struct {
	Kind   OpKind
	Key    node.Key
	Parent node.Key
}

// String returns a string representation of the op.
func (o Op) String() string {
	return fmt.Sprintf("%s(%s in %s)", o.Kind, o.Key, o.Parent)
}

// Patch is the ordered log of operations one reconciliation applied.
type Patch struct {
	Ops []Op
}

// Len returns the number of operations.
func (p Patch) Len() int {
	return len(p.Ops)
}

// IsEmpty reports whether nothing was applied.
func (p Patch) IsEmpty() bool {
	return len(p.Ops) == 0
}

// Count returns the number of operations of the given kind.
func (p Patch) Count(kind OpKind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Keys returns the keys of the operations of the given kind, in order.
func (p Patch) Keys(kind OpKind) []node.Key {
	var out []node.Key
	for _, op := range p.Ops {
		if op.Kind == kind {
			out = append(out, op.Key)
		}
	}
	return out
}

func (p *Patch) add(kind OpKind, key, parent node.Key) {
	p.Ops = append(p.Ops, Op{Kind: kind, Key: key, Parent: parent})
}
