package nodes

import (
	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/dom"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/theme"
)

// LineBreakType is the type tag of line breaks.
const LineBreakType = "linebreak"

// LineBreak is a hard line break inside a block.
type LineBreak struct {
	node.Base
}

// NewLineBreak creates a detached line break.
func NewLineBreak(o node.Owner) (*LineBreak, error) {
	b := &LineBreak{}
	if err := node.Init(o, b, LineBreakType); err != nil {
		return nil, err
	}
	return b, nil
}

// Clone returns a copy of this version.
func (b *LineBreak) Clone() node.Node {
	c := *b
	return &c
}

// TextContent returns a newline.
func (b *LineBreak) TextContent() string {
	return "\n"
}

// CreateDOM renders a <br>.
func (b *LineBreak) CreateDOM(theme.Theme) *html.Node {
	return dom.NewElement("br", "")
}

// UpdateDOM has nothing to patch.
func (b *LineBreak) UpdateDOM(node.Node, *html.Node, theme.Theme) bool {
	return false
}

// CanInsertTextAtEnd returns false.
func (b *LineBreak) CanInsertTextAtEnd() bool {
	return false
}

// IsLineBreak reports whether n is a line break.
func IsLineBreak(n node.Node) bool {
	_, ok := n.(*LineBreak)
	return ok
}
