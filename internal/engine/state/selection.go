package state

import (
	"fmt"

	"github.com/dshills/richtext/internal/engine/node"
)

// Point is a position inside a node. For text-like nodes Offset counts
// runes; for elements it is a child index.
type Point struct {
	Key    node.Key
	Offset int
}

// String returns a string representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Key, p.Offset)
}

// Selection is an anchor/focus pair. Anchor is where the selection
// started; Focus is where it ends. Selection is an immutable value type.
type Selection struct {
	Anchor Point
	Focus  Point
}

// NewSelection creates a selection from anchor to focus.
func NewSelection(anchor, focus Point) Selection {
	return Selection{Anchor: anchor, Focus: focus}
}

// Caret creates a collapsed selection at p.
func Caret(p Point) Selection {
	return Selection{Anchor: p, Focus: p}
}

// IsCollapsed reports whether anchor and focus coincide.
func (s Selection) IsCollapsed() bool {
	return s.Anchor == s.Focus
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsCollapsed() {
		return fmt.Sprintf("Selection(%s)", s.Anchor)
	}
	return fmt.Sprintf("Selection(%s -> %s)", s.Anchor, s.Focus)
}
