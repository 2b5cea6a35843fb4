package reconcile

import (
	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/engine/node"
)

// Tree is the live rendered tree: a host element for the root plus the
// element currently rendered for each key.
type Tree struct {
	host     *html.Node
	elements map[node.Key]*html.Node
}

// NewTree creates a tree rendering into host. Nothing is rendered until
// Mount is called.
func NewTree(host *html.Node) *Tree {
	return &Tree{
		host:     host,
		elements: map[node.Key]*html.Node{node.RootKey: host},
	}
}

// Host returns the element the root renders into.
func (t *Tree) Host() *html.Node {
	return t.host
}

// Element returns the element rendered for key.
func (t *Tree) Element(key node.Key) (*html.Node, bool) {
	el, ok := t.elements[key]
	return el, ok
}

// Len returns the number of rendered keys, including the root.
func (t *Tree) Len() int {
	return len(t.elements)
}

// Forget drops the element recorded for key. The element itself is not
// detached; this only affects bookkeeping.
func (t *Tree) Forget(key node.Key) {
	if key == node.RootKey {
		return
	}
	delete(t.elements, key)
}
