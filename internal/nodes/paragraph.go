package nodes

import (
	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/dom"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/theme"
)

// ParagraphType is the type tag of paragraphs.
const ParagraphType = "paragraph"

// Paragraph is a block element holding inline children.
type Paragraph struct {
	node.Element
}

// NewParagraph creates an empty detached paragraph.
func NewParagraph(o node.Owner) (*Paragraph, error) {
	p := &Paragraph{}
	if err := node.Init(o, p, ParagraphType); err != nil {
		return nil, err
	}
	return p, nil
}

// Clone returns a copy of this version.
func (p *Paragraph) Clone() node.Node {
	return &Paragraph{Element: p.CloneElement()}
}

// CreateDOM renders a <p> carrying the theme's paragraph class.
func (p *Paragraph) CreateDOM(th theme.Theme) *html.Node {
	class, _ := th.Class(ParagraphType)
	return dom.NewElement("p", class)
}

// UpdateDOM refreshes the class. Children are reconciled separately.
func (p *Paragraph) UpdateDOM(_ node.Node, el *html.Node, th theme.Theme) bool {
	class, _ := th.Class(ParagraphType)
	dom.SetClass(el, class)
	return false
}

// CanInsertTextAtEnd returns false; text goes into a child.
func (p *Paragraph) CanInsertTextAtEnd() bool {
	return false
}

// IsParagraph reports whether n is a paragraph.
func IsParagraph(n node.Node) bool {
	_, ok := n.(*Paragraph)
	return ok
}
