package node

import (
	"slices"
	"strings"
)

// ElementNode is a node that owns an ordered sequence of children.
type ElementNode interface {
	Node
	element() *Element
}

// Element is embedded by node types that have children.
type Element struct {
	Base
	children []Key
}

func (e *Element) element() *Element { return e }

// CloneElement returns a copy of e whose child list does not share
// storage with the original. Concrete Clone implementations use it.
func (e *Element) CloneElement() Element {
	c := *e
	c.children = slices.Clone(e.children)
	return c
}

// Children returns the latest child keys in order.
func (e *Element) Children() []Key {
	return slices.Clone(e.latestElement().children)
}

// ChildCount returns the latest number of children.
func (e *Element) ChildCount() int {
	return len(e.latestElement().children)
}

// TextContent concatenates the text content of the children.
func (e *Element) TextContent() string {
	var sb strings.Builder
	for _, c := range e.childNodes() {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

func (e *Element) latestElement() *Element {
	if e.owner == nil {
		return e
	}
	n, ok := e.owner.Latest(e.key)
	if !ok {
		return e
	}
	if el, ok := n.(ElementNode); ok {
		return el.element()
	}
	return e
}

func (e *Element) childNodes() []Node {
	le := e.latestElement()
	if le.owner == nil {
		return nil
	}
	out := make([]Node, 0, len(le.children))
	for _, k := range le.children {
		if c, ok := le.owner.Latest(k); ok {
			out = append(out, c)
		}
	}
	return out
}

// IsElement reports whether n has children.
func IsElement(n Node) bool {
	_, ok := n.(ElementNode)
	return ok
}

// RawChildren returns the child keys stored in this version of n, or nil
// for leaves. The slice must not be modified.
func RawChildren(n Node) []Key {
	if el, ok := n.(ElementNode); ok {
		return el.element().children
	}
	return nil
}

// ChildNodes returns the latest versions of n's children in order.
func ChildNodes(n Node) []Node {
	if el, ok := n.(ElementNode); ok {
		return el.element().childNodes()
	}
	return nil
}

// indexOf returns the position of child in n's latest child list, or -1.
func indexOf(n Node, child Key) int {
	el, ok := n.(ElementNode)
	if !ok {
		return -1
	}
	return slices.Index(el.element().latestElement().children, child)
}
