package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/richtext/internal/engine/editor"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/state"
	"github.com/dshills/richtext/internal/nodes"
)

// builder binds the doc table to one transaction.
type builder struct {
	tx      *editor.Txn
	para    node.Node
	created int

	// err keeps the first Go error so callers can match it.
	err error
}

func (b *builder) install(L *lua.LState) {
	t := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"paragraph": b.paragraph,
		"text":      b.text,
		"link":      b.link,
		"linebreak": b.linebreak,
		"flags":     b.flags,
		"select":    b.selectAt,
		"insert":    b.insert,
		"content":   b.content,
	})
	L.SetGlobal("doc", t)
}

// fail records err and raises it in the script.
func (b *builder) fail(L *lua.LState, err error) int {
	if b.err == nil {
		b.err = err
	}
	L.RaiseError("%s", err.Error())
	return 0
}

func (b *builder) paragraph(L *lua.LState) int {
	p, err := b.tx.Create(nodes.ParagraphType)
	if err != nil {
		return b.fail(L, err)
	}
	if err := node.Append(b.tx.Root(), p); err != nil {
		return b.fail(L, err)
	}
	b.para = p
	b.created++
	L.Push(lua.LString(p.Key()))
	return 1
}

// appendLeaf adds n to the current paragraph and pushes its key.
func (b *builder) appendLeaf(L *lua.LState, n node.Node) int {
	if b.para == nil {
		b.paragraph(L)
		L.Pop(1)
	}
	if err := node.Append(b.para, n); err != nil {
		return b.fail(L, err)
	}
	b.created++
	L.Push(lua.LString(n.Key()))
	return 1
}

func (b *builder) text(L *lua.LState) int {
	s := L.CheckString(1)
	format, ok := nodes.ParseFormat(L.OptString(2, ""))
	if !ok {
		L.ArgError(2, "unknown format")
		return 0
	}
	n, err := b.tx.Create(nodes.TextType, s)
	if err != nil {
		return b.fail(L, err)
	}
	if format != 0 {
		if err := n.(*nodes.Text).SetFormat(format); err != nil {
			return b.fail(L, err)
		}
	}
	return b.appendLeaf(L, n)
}

func (b *builder) link(L *lua.LState) int {
	n, err := b.tx.Create(nodes.LinkType, L.CheckString(1), L.CheckString(2))
	if err != nil {
		return b.fail(L, err)
	}
	return b.appendLeaf(L, n)
}

func (b *builder) linebreak(L *lua.LState) int {
	n, err := b.tx.Create(nodes.LineBreakType)
	if err != nil {
		return b.fail(L, err)
	}
	return b.appendLeaf(L, n)
}

func (b *builder) flags(L *lua.LState) int {
	k := node.Key(L.CheckString(1))
	n, ok := b.tx.Node(k)
	if !ok {
		return b.fail(L, fmt.Errorf("%w: %s", node.ErrNodeNotFound, k))
	}
	f, ok := node.ParseFlags(L.CheckString(2))
	if !ok {
		L.ArgError(2, "unknown flags")
		return 0
	}
	if err := node.SetFlags(n, f); err != nil {
		return b.fail(L, err)
	}
	return 0
}

func (b *builder) selectAt(L *lua.LState) int {
	p := state.Point{Key: node.Key(L.CheckString(1)), Offset: L.CheckInt(2)}
	if err := b.tx.SetSelection(state.Caret(p)); err != nil {
		return b.fail(L, err)
	}
	return 0
}

func (b *builder) insert(L *lua.LState) int {
	if err := b.tx.InsertText(L.CheckString(1)); err != nil {
		return b.fail(L, err)
	}
	return 0
}

func (b *builder) content(L *lua.LState) int {
	L.Push(lua.LString(b.tx.Root().TextContent()))
	return 1
}
