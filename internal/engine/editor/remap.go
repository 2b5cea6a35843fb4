package editor

import (
	"slices"

	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/state"
)

// attacher is a committed state or the draft itself.
type attacher interface {
	IsAttached(key node.Key) bool
}

// remap moves the draft selection onto next.
func remap(d *draft, next *state.EditorState) *state.Selection {
	if d.selection == nil {
		return nil
	}
	sel := state.NewSelection(
		remapPoint(d, next, d.selection.Anchor),
		remapPoint(d, next, d.selection.Focus),
	)
	return &sel
}

// remapPoint resolves p against next:
//
//   - a replaced node maps to its replacement
//   - a split node maps to the part covering the offset; an offset on a
//     boundary belongs to the later part
//   - a removed node maps to the end of its nearest preceding surviving
//     sibling, else the start of its parent, walking up as needed, else
//     the start of the root
//
// Offsets are clamped to the size of the resolved node.
func remapPoint(d *draft, next *state.EditorState, p state.Point) state.Point {
	p = follow(d, next, p)
	if n, ok := next.Node(p.Key); ok && next.IsAttached(p.Key) {
		p.Offset = min(max(p.Offset, 0), node.Size(n))
		return p
	}
	return survivor(d, next, p.Key)
}

// follow moves p through the replacements and splits noted in d.
func follow(d *draft, next attacher, p state.Point) state.Point {
	seen := make(map[node.Key]bool)
	for !seen[p.Key] {
		seen[p.Key] = true
		if with, ok := d.replaced[p.Key]; ok && !next.IsAttached(p.Key) {
			p.Key = with
			continue
		}
		if sp, ok := d.splits[p.Key]; ok {
			p = project(sp, p.Offset)
			continue
		}
		break
	}
	return p
}

func project(sp split, off int) state.Point {
	for i, size := range sp.sizes {
		if i == len(sp.sizes)-1 || off < size {
			return state.Point{Key: sp.parts[i], Offset: off}
		}
		off -= size
	}
	return state.Point{Key: sp.parts[0], Offset: 0}
}

// survivor finds the position a removed key collapses to, using the
// structure of the base state.
func survivor(d *draft, next *state.EditorState, k node.Key) state.Point {
	for hops := 0; hops <= d.base.Len(); hops++ {
		prev, ok := d.base.Node(k)
		if !ok {
			break
		}
		parent := node.RawParent(prev)
		if parent == "" {
			break
		}
		pn, ok := d.base.Node(parent)
		if !ok {
			break
		}
		siblings := node.RawChildren(pn)
		for j := slices.Index(siblings, k) - 1; j >= 0; j-- {
			sk := siblings[j]
			if !next.IsAttached(sk) {
				continue
			}
			sn, _ := next.Node(sk)
			return state.Point{Key: sk, Offset: node.Size(sn)}
		}
		if next.IsAttached(parent) {
			return state.Point{Key: parent, Offset: 0}
		}
		k = parent
	}
	return state.Point{Key: node.RootKey, Offset: 0}
}
