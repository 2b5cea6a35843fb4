package state

import (
	"fmt"
	"slices"

	"github.com/dshills/richtext/internal/engine/node"
)

// EditorState is an immutable snapshot of the node tree and selection.
type EditorState struct {
	nodes     *nodeMap
	selection *Selection
}

// New builds a state from a complete set of nodes. One of them must be
// the root. The whole tree is validated.
func New(nodes []node.Node, sel *Selection) (*EditorState, error) {
	entries := make(map[node.Key]node.Node, len(nodes))
	for _, n := range nodes {
		if _, dup := entries[n.Key()]; dup {
			return nil, fmt.Errorf("%w: duplicate key %s", ErrInvalidState, n.Key())
		}
		entries[n.Key()] = n
	}
	s := &EditorState{nodes: newNodeMap(entries), selection: copySelection(sel)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply returns the state produced by replacing, adding and deleting
// (nil value) the given entries, with sel as the new selection.
// The receiver is not modified. The touched region is validated.
func (s *EditorState) Apply(changes map[node.Key]node.Node, sel *Selection) (*EditorState, error) {
	next := &EditorState{
		nodes:     s.nodes.with(changes),
		selection: copySelection(sel),
	}
	if err := next.validateChanges(s, changes); err != nil {
		return nil, err
	}
	if err := next.validateSelection(); err != nil {
		return nil, err
	}
	return next, nil
}

// WithSelection returns a copy of s carrying sel.
func (s *EditorState) WithSelection(sel *Selection) (*EditorState, error) {
	next := &EditorState{nodes: s.nodes, selection: copySelection(sel)}
	if err := next.validateSelection(); err != nil {
		return nil, err
	}
	return next, nil
}

// RootKey returns the key of the root node.
func (s *EditorState) RootKey() node.Key {
	return node.RootKey
}

// Root returns the root node.
func (s *EditorState) Root() node.Node {
	n, _ := s.nodes.get(node.RootKey)
	return n
}

// Node returns the version of key held by this state.
func (s *EditorState) Node(key node.Key) (node.Node, bool) {
	return s.nodes.get(key)
}

// Has reports whether key resolves in this state.
func (s *EditorState) Has(key node.Key) bool {
	_, ok := s.nodes.get(key)
	return ok
}

// Len returns the number of nodes.
func (s *EditorState) Len() int {
	return s.nodes.size
}

// Selection returns the selection, if any.
func (s *EditorState) Selection() (Selection, bool) {
	if s.selection == nil {
		return Selection{}, false
	}
	return *s.selection, true
}

// Walk visits the tree in document order, depth first, starting at the
// root. Returning false from fn skips the node's children.
func (s *EditorState) Walk(fn func(n node.Node, depth int) bool) {
	var visit func(k node.Key, depth int)
	visit = func(k node.Key, depth int) {
		n, ok := s.nodes.get(k)
		if !ok {
			return
		}
		if !fn(n, depth) {
			return
		}
		for _, c := range node.RawChildren(n) {
			visit(c, depth+1)
		}
	}
	visit(node.RootKey, 0)
}

// Keys returns the keys reachable from the root in document order.
func (s *EditorState) Keys() []node.Key {
	var out []node.Key
	s.Walk(func(n node.Node, _ int) bool {
		out = append(out, n.Key())
		return true
	})
	return out
}

// IsAttached reports whether key is reachable from the root.
func (s *EditorState) IsAttached(key node.Key) bool {
	for steps := 0; steps <= s.nodes.size; steps++ {
		if key == node.RootKey {
			return s.Has(key)
		}
		n, ok := s.nodes.get(key)
		if !ok {
			return false
		}
		p := node.RawParent(n)
		if p == "" {
			return false
		}
		pn, ok := s.nodes.get(p)
		if !ok || !slices.Contains(node.RawChildren(pn), key) {
			return false
		}
		key = p
	}
	return false
}

// Validate checks every structural invariant over the whole state:
// the root exists, every node is reachable from it exactly once, and
// parent and child edges agree.
func (s *EditorState) Validate() error {
	root, ok := s.nodes.get(node.RootKey)
	if !ok {
		return fmt.Errorf("%w: missing root", ErrInvalidState)
	}
	if node.RawParent(root) != "" {
		return fmt.Errorf("%w: root has parent %s", ErrInvalidState, node.RawParent(root))
	}

	seen := make(map[node.Key]bool, s.nodes.size)
	var visit func(k node.Key) error
	visit = func(k node.Key) error {
		if seen[k] {
			return fmt.Errorf("%w: %s reachable more than once", ErrInvalidState, k)
		}
		seen[k] = true
		n, _ := s.nodes.get(k)
		for _, c := range node.RawChildren(n) {
			cn, ok := s.nodes.get(c)
			if !ok {
				return fmt.Errorf("%w: child %s of %s does not resolve", ErrInvalidState, c, k)
			}
			if node.RawParent(cn) != k {
				return fmt.Errorf("%w: %s lists %s but its parent is %q", ErrInvalidState, k, c, node.RawParent(cn))
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(node.RootKey); err != nil {
		return err
	}
	if len(seen) != s.nodes.size {
		return fmt.Errorf("%w: %d of %d nodes unreachable from root", ErrInvalidState, s.nodes.size-len(seen), s.nodes.size)
	}
	return s.validateSelection()
}

func (s *EditorState) validateChanges(prev *EditorState, changes map[node.Key]node.Node) error {
	if !s.Has(node.RootKey) {
		return fmt.Errorf("%w: missing root", ErrInvalidState)
	}
	for k, n := range changes {
		if n == nil {
			if err := s.validateDeleted(prev, k); err != nil {
				return err
			}
			continue
		}
		if n.Key() != k {
			return fmt.Errorf("%w: entry %s holds node %s", ErrInvalidState, k, n.Key())
		}
		if err := s.validateEdges(prev, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *EditorState) validateEdges(prev *EditorState, n node.Node) error {
	k := n.Key()
	parent := node.RawParent(n)

	if k == node.RootKey {
		if parent != "" {
			return fmt.Errorf("%w: root has parent %s", ErrInvalidState, parent)
		}
	} else {
		if parent == "" {
			return fmt.Errorf("%w: %s is detached", ErrInvalidState, k)
		}
		pn, ok := s.nodes.get(parent)
		if !ok {
			return fmt.Errorf("%w: parent %s of %s does not resolve", ErrInvalidState, parent, k)
		}
		if !slices.Contains(node.RawChildren(pn), k) {
			return fmt.Errorf("%w: parent %s does not list %s", ErrInvalidState, parent, k)
		}
		if !s.IsAttached(k) {
			return fmt.Errorf("%w: %s is not reachable from root", ErrInvalidState, k)
		}
	}

	if old, ok := prev.nodes.get(k); ok {
		if op := node.RawParent(old); op != "" && op != parent {
			if opn, ok := s.nodes.get(op); ok && slices.Contains(node.RawChildren(opn), k) {
				return fmt.Errorf("%w: %s still listed by previous parent %s", ErrInvalidState, k, op)
			}
		}
	}

	children := node.RawChildren(n)
	seen := make(map[node.Key]bool, len(children))
	for _, c := range children {
		if seen[c] {
			return fmt.Errorf("%w: %s lists %s twice", ErrInvalidState, k, c)
		}
		seen[c] = true
		cn, ok := s.nodes.get(c)
		if !ok {
			return fmt.Errorf("%w: child %s of %s does not resolve", ErrInvalidState, c, k)
		}
		if node.RawParent(cn) != k {
			return fmt.Errorf("%w: %s lists %s but its parent is %q", ErrInvalidState, k, c, node.RawParent(cn))
		}
	}
	return nil
}

func (s *EditorState) validateDeleted(prev *EditorState, k node.Key) error {
	if k == node.RootKey {
		return fmt.Errorf("%w: root deleted", ErrInvalidState)
	}
	old, ok := prev.nodes.get(k)
	if !ok {
		return nil
	}
	if p := node.RawParent(old); p != "" {
		if pn, ok := s.nodes.get(p); ok && slices.Contains(node.RawChildren(pn), k) {
			return fmt.Errorf("%w: deleted %s still listed by %s", ErrInvalidState, k, p)
		}
	}
	for _, c := range node.RawChildren(old) {
		if cn, ok := s.nodes.get(c); ok && node.RawParent(cn) == k {
			return fmt.Errorf("%w: %s still names deleted parent %s", ErrInvalidState, c, k)
		}
	}
	return nil
}

func (s *EditorState) validateSelection() error {
	if s.selection == nil {
		return nil
	}
	for _, p := range []Point{s.selection.Anchor, s.selection.Focus} {
		if err := s.ValidatePoint(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePoint checks that p resolves to an attached node and that its
// offset lies within the node.
func (s *EditorState) ValidatePoint(p Point) error {
	n, ok := s.nodes.get(p.Key)
	if !ok {
		return fmt.Errorf("%w: %s does not resolve", ErrInvalidSelection, p.Key)
	}
	if !s.IsAttached(p.Key) {
		return fmt.Errorf("%w: %s is detached", ErrInvalidSelection, p.Key)
	}
	if p.Offset < 0 || p.Offset > node.Size(n) {
		return fmt.Errorf("%w: offset %d out of range for %s", ErrInvalidSelection, p.Offset, p.Key)
	}
	return nil
}

func copySelection(sel *Selection) *Selection {
	if sel == nil {
		return nil
	}
	c := *sel
	return &c
}
