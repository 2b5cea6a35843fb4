package main

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/richtext/internal/engine/editor"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/nodes"
)

// item is one parsed node description.
type item struct {
	typ    string
	args   []string
	format nodes.Format
}

// parseItems parses node descriptions such as "paragraph",
// "text[bold]:hello" and "link:docs,https://example.com". Content is
// normalized to NFC.
func parseItems(specs []string) ([]item, error) {
	items := make([]item, 0, len(specs))
	for _, spec := range specs {
		head, body, hasBody := strings.Cut(spec, ":")
		body = norm.NFC.String(body)
		typ, format, err := parseHead(head)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", spec, err)
		}

		it := item{typ: typ, format: format}
		switch typ {
		case nodes.ParagraphType, nodes.LineBreakType:
			if hasBody {
				return nil, fmt.Errorf("%q: %s takes no content", spec, typ)
			}
		case nodes.TextType:
			if !hasBody || body == "" {
				return nil, fmt.Errorf("%q: text needs content", spec)
			}
			it.args = []string{body}
		case nodes.LinkType:
			text, url, ok := strings.Cut(body, ",")
			if !ok || text == "" || url == "" {
				return nil, fmt.Errorf("%q: link needs TEXT,URL", spec)
			}
			it.args = []string{text, url}
		default:
			return nil, fmt.Errorf("%q: unknown node type %q", spec, typ)
		}
		if format != 0 && typ != nodes.TextType {
			return nil, fmt.Errorf("%q: only text takes a format", spec)
		}
		items = append(items, it)
	}
	return items, nil
}

// parseHead splits "text[bold|italic]" into the type and its format.
func parseHead(head string) (string, nodes.Format, error) {
	typ, rest, ok := strings.Cut(head, "[")
	typ = aliases(typ)
	if !ok {
		return typ, 0, nil
	}
	list, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return "", 0, fmt.Errorf("unterminated format list")
	}
	f, ok := nodes.ParseFormat(list)
	if !ok {
		return "", 0, fmt.Errorf("unknown format %q", list)
	}
	return typ, f, nil
}

func aliases(typ string) string {
	switch typ {
	case "p":
		return nodes.ParagraphType
	case "br":
		return nodes.LineBreakType
	default:
		return typ
	}
}

// build appends items to the root inside one update.
func build(tx *editor.Txn, items []item) error {
	root := tx.Root()
	var para node.Node
	for _, it := range items {
		n, err := tx.Create(it.typ, it.args...)
		if err != nil {
			return err
		}
		if it.typ == nodes.ParagraphType {
			if err := node.Append(root, n); err != nil {
				return err
			}
			para = n
			continue
		}
		if t, ok := n.(*nodes.Text); ok && it.format != 0 {
			if err := t.SetFormat(it.format); err != nil {
				return err
			}
		}
		if para == nil {
			if para, err = tx.Create(nodes.ParagraphType); err != nil {
				return err
			}
			if err := node.Append(root, para); err != nil {
				return err
			}
		}
		if err := node.Append(para, n); err != nil {
			return err
		}
	}
	return nil
}
