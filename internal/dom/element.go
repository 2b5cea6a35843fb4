package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewElement creates a detached element. An empty class leaves the element unstyled.
func NewElement(tag, class string) *html.Node {
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	if class != "" {
		SetClass(el, class)
	}
	return el
}

// NewText creates a detached text node.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attr returns the value of the named attribute.
func Attr(el *html.Node, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func SetAttr(el *html.Node, name, val string) {
	for i, a := range el.Attr {
		if a.Namespace == "" && a.Key == name {
			el.Attr[i].Val = val
			return
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: name, Val: val})
}

// RemoveAttr removes the named attribute if present.
func RemoveAttr(el *html.Node, name string) {
	for i, a := range el.Attr {
		if a.Namespace == "" && a.Key == name {
			el.Attr = append(el.Attr[:i], el.Attr[i+1:]...)
			return
		}
	}
}

// Class returns the element's class attribute.
func Class(el *html.Node) (string, bool) {
	return Attr(el, "class")
}

// SetClass sets the class attribute, removing it when class is empty.
// It reports whether the element changed.
func SetClass(el *html.Node, class string) bool {
	cur, ok := Class(el)
	if class == "" {
		if !ok {
			return false
		}
		RemoveAttr(el, "class")
		return true
	}
	if ok && cur == class {
		return false
	}
	SetAttr(el, "class", class)
	return true
}

// SetText makes s the only content of el. A sole existing text child is
// updated in place. It reports whether the element changed.
func SetText(el *html.Node, s string) bool {
	if c := el.FirstChild; c != nil && c == el.LastChild && c.Type == html.TextNode {
		if c.Data == s {
			return false
		}
		c.Data = s
		return true
	}
	RemoveChildren(el)
	el.AppendChild(NewText(s))
	return true
}

// RemoveChildren detaches every child of el.
func RemoveChildren(el *html.Node) {
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
}

// Detach removes el from its parent, if any.
func Detach(el *html.Node) {
	if el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
}

// Children returns the direct children of el in order.
func Children(el *html.Node) []*html.Node {
	var out []*html.Node
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// TextContent returns the concatenated text of el and its descendants.
func TextContent(el *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el)
	return sb.String()
}

// OuterHTML renders el including its own tag.
func OuterHTML(el *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, el); err != nil {
		return ""
	}
	return sb.String()
}

// InnerHTML renders the children of el.
func InnerHTML(el *html.Node) string {
	var sb strings.Builder
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return ""
		}
	}
	return sb.String()
}
