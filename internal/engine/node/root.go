package node

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/dom"
	"github.com/dshills/richtext/internal/theme"
)

// RootType is the type tag of the root node.
const RootType = "root"

// Root is the top of every editor state's tree.
// It renders into the host container the editor is mounted on.
type Root struct {
	Element
}

// NewRoot creates the root node of an editor. It is not adopted by a
// transaction: the editor places it in the initial state directly.
func NewRoot(o Owner) *Root {
	r := &Root{}
	r.key = RootKey
	r.typ = RootType
	r.owner = o
	return r
}

// Clone returns a copy of the root.
func (r *Root) Clone() Node {
	return &Root{Element: r.CloneElement()}
}

// TextContent joins block children with a blank line.
func (r *Root) TextContent() string {
	children := r.childNodes()
	parts := make([]string, 0, len(children))
	for _, c := range children {
		parts = append(parts, c.TextContent())
	}
	return strings.Join(parts, "\n\n")
}

// CreateDOM builds a standalone container; mounted editors use the host element instead.
func (r *Root) CreateDOM(th theme.Theme) *html.Node {
	class, _ := th.Class("root")
	return dom.NewElement("div", class)
}

// UpdateDOM never replaces the host container.
func (r *Root) UpdateDOM(prev Node, el *html.Node, th theme.Theme) bool {
	return false
}

// CanInsertTextAtEnd reports false: text lives in blocks, not the root.
func (r *Root) CanInsertTextAtEnd() bool {
	return false
}

// IsRoot reports whether n is a root node.
func IsRoot(n Node) bool {
	_, ok := n.(*Root)
	return ok
}
