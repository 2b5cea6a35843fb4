package nodes

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/dom"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/theme"
)

// TextType is the type tag of text nodes.
const TextType = "text"

// Text is a run of uniformly formatted text.
type Text struct {
	node.Base
	text   string
	format Format
}

// NewText creates a detached text node. Empty text is allowed.
func NewText(o node.Owner, text string) (*Text, error) {
	t := &Text{text: text}
	if err := node.Init(o, t, TextType); err != nil {
		return nil, err
	}
	return t, nil
}

// Clone returns a copy of this version.
func (t *Text) Clone() node.Node {
	c := *t
	return &c
}

// Text returns the latest text.
func (t *Text) Text() string {
	return node.Latest(t).text
}

// SetText replaces the text.
func (t *Text) SetText(s string) error {
	w, err := node.Writable(t)
	if err != nil {
		return err
	}
	w.text = s
	return nil
}

// TextContent returns the latest text.
func (t *Text) TextContent() string {
	return t.Text()
}

// Format returns the latest format.
func (t *Text) Format() Format {
	return node.Latest(t).format
}

// SetFormat replaces the format.
func (t *Text) SetFormat(f Format) error {
	w, err := node.Writable(t)
	if err != nil {
		return err
	}
	w.format = f
	return nil
}

// CanInsertTextAtEnd reports whether typing may extend this node.
// Immutable and segmented text cannot be extended.
func (t *Text) CanInsertTextAtEnd() bool {
	f := t.Flags()
	return !f.Has(node.FlagImmutable) && !f.Has(node.FlagSegmented)
}

// CreateDOM renders a <span> holding the text.
func (t *Text) CreateDOM(th theme.Theme) *html.Node {
	el := dom.NewElement("span", textClass(th, t.format))
	dom.SetText(el, t.text)
	return el
}

// UpdateDOM patches text and class in place.
func (t *Text) UpdateDOM(_ node.Node, el *html.Node, th theme.Theme) bool {
	dom.SetClass(el, textClass(th, t.format))
	dom.SetText(el, t.text)
	return false
}

// SplitText cuts the node at the given rune offsets. The node keeps the
// first part; the remaining parts are new text nodes inserted after it
// with the same format and flags. Offsets at either end are ignored.
// The returned slice holds every part in order.
func (t *Text) SplitText(offsets ...int) ([]*Text, error) {
	w, err := node.Writable(t)
	if err != nil {
		return nil, err
	}
	runes := []rune(w.text)

	var cuts []int
	last := 0
	for _, off := range offsets {
		if off < 0 || off > len(runes) {
			return nil, fmt.Errorf("%w: split offset %d outside [0,%d]", node.ErrInvalidArgument, off, len(runes))
		}
		if off == 0 || off == len(runes) {
			continue
		}
		if off <= last {
			return nil, fmt.Errorf("%w: split offsets must increase", node.ErrInvalidArgument)
		}
		cuts = append(cuts, off)
		last = off
	}
	if len(cuts) == 0 {
		return []*Text{w}, nil
	}

	o := node.OwnerOf(w)
	bounds := append(append([]int{0}, cuts...), len(runes))
	parts := []*Text{w}
	keys := []node.Key{w.Key()}
	sizes := []int{cuts[0]}
	prev := node.Node(w)
	for i := 1; i < len(bounds)-1; i++ {
		p, err := NewText(o, string(runes[bounds[i]:bounds[i+1]]))
		if err != nil {
			return nil, err
		}
		p.format = w.format
		if err := node.SetFlags(p, node.RawFlags(w)); err != nil {
			return nil, err
		}
		if node.RawParent(w) != "" {
			if err := node.InsertAfter(prev, p); err != nil {
				return nil, err
			}
		}
		parts = append(parts, p)
		keys = append(keys, p.Key())
		sizes = append(sizes, bounds[i+1]-bounds[i])
		prev = p
	}
	w.text = string(runes[:cuts[0]])
	o.NoteSplit(w.Key(), keys, sizes)
	return parts, nil
}

// IsText reports whether n is a text node.
func IsText(n node.Node) bool {
	_, ok := n.(*Text)
	return ok
}

// textClass joins the theme classes of the set styles. Underline together
// with strikethrough uses the combined "text.underlineStrikethrough" entry.
func textClass(th theme.Theme, f Format) string {
	var classes []string
	if c, ok := th.Class(TextType); ok {
		classes = append(classes, c)
	}
	if f.Has(FormatUnderline | FormatStrikethrough) {
		if c, ok := th.Class("text.underlineStrikethrough"); ok {
			classes = append(classes, c)
			f &^= FormatUnderline | FormatStrikethrough
		}
	}
	for _, n := range formatNames {
		if !f.Has(n.format) {
			continue
		}
		if c, ok := th.Class("text." + n.name); ok {
			classes = append(classes, c)
		}
	}
	return strings.Join(classes, " ")
}
