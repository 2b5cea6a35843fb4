package nodes

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/dom"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/theme"
)

// LinkType is the type tag of links.
const LinkType = "link"

// Link is a text leaf pointing at a URL.
//
// It renders as an outer span carrying the theme's link class around an
// inner span holding the text.
type Link struct {
	node.Base
	text string
	url  string
}

// NewLink creates a detached link. Both text and url are required.
func NewLink(o node.Owner, text, url string) (*Link, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: link text is required", node.ErrInvalidArgument)
	}
	if url == "" {
		return nil, fmt.Errorf("%w: link url is required", node.ErrInvalidArgument)
	}
	l := &Link{text: text, url: url}
	if err := node.Init(o, l, LinkType); err != nil {
		return nil, err
	}
	return l, nil
}

// Clone returns a copy of this version.
func (l *Link) Clone() node.Node {
	c := *l
	return &c
}

// URL returns the latest URL.
func (l *Link) URL() string {
	return node.Latest(l).url
}

// SetURL replaces the URL.
func (l *Link) SetURL(url string) error {
	if url == "" {
		return fmt.Errorf("%w: link url is required", node.ErrInvalidArgument)
	}
	w, err := node.Writable(l)
	if err != nil {
		return err
	}
	w.url = url
	return nil
}

// Text returns the latest text.
func (l *Link) Text() string {
	return node.Latest(l).text
}

// SetText replaces the text.
func (l *Link) SetText(s string) error {
	w, err := node.Writable(l)
	if err != nil {
		return err
	}
	w.text = s
	return nil
}

// TextContent returns the latest text.
func (l *Link) TextContent() string {
	return l.Text()
}

// CanInsertTextAtEnd returns false: typing after a link starts plain text.
func (l *Link) CanInsertTextAtEnd() bool {
	return false
}

// CreateDOM renders <span class=link><span>text</span></span>.
func (l *Link) CreateDOM(th theme.Theme) *html.Node {
	class, _ := th.Class(LinkType)
	outer := dom.NewElement("span", class)
	inner := dom.NewElement("span", "")
	dom.SetText(inner, l.text)
	outer.AppendChild(inner)
	return outer
}

// UpdateDOM patches the class and the inner text in place. It asks for a
// fresh element only when el does not have the expected shape.
func (l *Link) UpdateDOM(_ node.Node, el *html.Node, th theme.Theme) bool {
	inner := el.FirstChild
	if inner == nil || inner.Type != html.ElementNode || inner.NextSibling != nil {
		return true
	}
	class, _ := th.Class(LinkType)
	dom.SetClass(el, class)
	dom.SetText(inner, l.text)
	return false
}

// IsLink reports whether n is a link.
func IsLink(n node.Node) bool {
	_, ok := n.(*Link)
	return ok
}
