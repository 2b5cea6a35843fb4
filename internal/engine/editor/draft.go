package editor

import (
	"context"
	"fmt"
	"slices"

	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/state"
)

type draftKey struct{}

// split records that a text node was cut into parts of the given sizes.
type split struct {
	parts []node.Key
	sizes []int
}

// draft is the mutable overlay of one transaction.
type draft struct {
	ctx   context.Context
	base  *state.EditorState
	nodes map[node.Key]node.Node

	selection *state.Selection
	splits    map[node.Key]split
	replaced  map[node.Key]node.Key

	depth int
	err   error
}

func newDraft(base *state.EditorState) *draft {
	d := &draft{
		base:     base,
		nodes:    make(map[node.Key]node.Node),
		splits:   make(map[node.Key]split),
		replaced: make(map[node.Key]node.Key),
	}
	if sel, ok := base.Selection(); ok {
		d.selection = &sel
	}
	return d
}

// get returns the latest version of k: the draft's, else the base state's.
func (d *draft) get(k node.Key) (node.Node, bool) {
	if n, ok := d.nodes[k]; ok {
		return n, true
	}
	return d.base.Node(k)
}

// IsAttached reports whether k is reachable from the root in the draft.
func (d *draft) IsAttached(k node.Key) bool {
	for steps := 0; steps <= len(d.nodes)+d.base.Len(); steps++ {
		if k == node.RootKey {
			return true
		}
		n, ok := d.get(k)
		if !ok {
			return false
		}
		p := node.RawParent(n)
		if p == "" {
			return false
		}
		pn, ok := d.get(p)
		if !ok || !slices.Contains(node.RawChildren(pn), k) {
			return false
		}
		k = p
	}
	return false
}

// current returns the draft selection moved across the splits and
// replacements noted so far. Offsets are clamped to the resolved nodes.
func (d *draft) current() (state.Selection, bool) {
	if d.selection == nil {
		return state.Selection{}, false
	}
	resolve := func(p state.Point) state.Point {
		p = follow(d, d, p)
		if n, ok := d.get(p.Key); ok {
			p.Offset = min(max(p.Offset, 0), node.Size(n))
		}
		return p
	}
	return state.NewSelection(resolve(d.selection.Anchor), resolve(d.selection.Focus)), true
}

// noteSplit records that key was cut into parts. A key split again in
// the same transaction has its entry in the earlier record replaced by
// the new parts, so offsets keep resolving against the original text.
func (d *draft) noteSplit(key node.Key, parts []node.Key, sizes []int) {
	if prev, ok := d.splits[key]; ok {
		if i := slices.Index(prev.parts, key); i >= 0 {
			parts = slices.Concat(prev.parts[:i], parts, prev.parts[i+1:])
			sizes = slices.Concat(prev.sizes[:i], sizes, prev.sizes[i+1:])
		}
	}
	d.splits[key] = split{parts: parts, sizes: sizes}
}

// resetNotes forgets split and replace records. An explicitly set
// selection already refers to the current structure.
func (d *draft) resetNotes() {
	clear(d.splits)
	clear(d.replaced)
}

// collect returns the changes d makes to its base. Draft nodes that are
// not reachable from the root are dropped together with their subtrees.
// It also returns how many keys were dropped.
func (e *Editor) collect(d *draft) (map[node.Key]node.Node, int, error) {
	memo := make(map[node.Key]bool, len(d.nodes))
	var attached func(k node.Key) bool
	attached = func(k node.Key) bool {
		if v, ok := memo[k]; ok {
			return v
		}
		memo[k] = false
		n, ok := d.get(k)
		if !ok {
			return false
		}
		v := false
		if k == node.RootKey {
			v = true
		} else if p := node.RawParent(n); p != "" {
			if pn, ok := d.get(p); ok && slices.Contains(node.RawChildren(pn), k) {
				v = attached(p)
			}
		}
		memo[k] = v
		return v
	}

	changes := make(map[node.Key]node.Node, len(d.nodes))
	gone := make(map[node.Key]bool)
	var drop func(k node.Key)
	drop = func(k node.Key) {
		if gone[k] {
			return
		}
		gone[k] = true
		if d.base.Has(k) {
			changes[k] = nil
		}
		n, ok := d.get(k)
		if !ok {
			return
		}
		for _, c := range node.RawChildren(n) {
			if !attached(c) {
				drop(c)
			}
		}
	}

	for k, n := range d.nodes {
		if !attached(k) {
			continue
		}
		if err := e.registry.Check(n); err != nil {
			return nil, 0, fmt.Errorf("commit: %w", err)
		}
		changes[k] = n
	}
	for k := range d.nodes {
		if !attached(k) {
			drop(k)
		}
	}
	return changes, len(gone), nil
}

// dirtyKeys returns the changed keys plus the ancestors of the surviving ones.
func dirtyKeys(next *state.EditorState, changes map[node.Key]node.Node) map[node.Key]struct{} {
	dirty := make(map[node.Key]struct{}, len(changes)*2)
	climbed := make(map[node.Key]bool, len(changes))
	for k, n := range changes {
		dirty[k] = struct{}{}
		if n == nil {
			continue
		}
		for cur := k; !climbed[cur]; {
			climbed[cur] = true
			cn, ok := next.Node(cur)
			if !ok {
				break
			}
			p := node.RawParent(cn)
			if p == "" {
				break
			}
			dirty[p] = struct{}{}
			cur = p
		}
	}
	return dirty
}
