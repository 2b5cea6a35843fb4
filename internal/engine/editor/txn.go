package editor

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/state"
)

// textType is the registered type InsertText creates new runs with.
const textType = "text"

// Txn is the editor's transaction handle. Every node of the editor is
// owned by it: node factories take it as their owner, and node getters
// and setters resolve through it.
//
// Mutating methods fail with node.ErrIllegalMutation outside Update.
type Txn struct {
	e *Editor
}

func (tx *Txn) active() (*draft, error) {
	d := tx.e.pending.Load()
	if d == nil {
		return nil, fmt.Errorf("%w: no active update", node.ErrIllegalMutation)
	}
	return d, nil
}

// Editor returns the editor the handle belongs to.
func (tx *Txn) Editor() *Editor {
	return tx.e
}

// Context returns the context of the active transaction. Passing it to
// Editor.Update joins the transaction instead of queueing.
func (tx *Txn) Context() context.Context {
	if d := tx.e.pending.Load(); d != nil {
		return d.ctx
	}
	return context.Background()
}

// Update runs fn inside the active transaction, or starts a new update
// when none is active.
func (tx *Txn) Update(fn func(tx *Txn) error) error {
	if d := tx.e.pending.Load(); d != nil {
		return tx.e.nested(d, fn)
	}
	return tx.e.Update(context.Background(), fn)
}

// ============================================================================
// node.Owner
// ============================================================================

// AllocateKey returns a fresh key.
func (tx *Txn) AllocateKey() (node.Key, error) {
	if _, err := tx.active(); err != nil {
		return "", err
	}
	return tx.e.keys.Allocate(), nil
}

// Adopt records a newly created node in the draft.
func (tx *Txn) Adopt(n node.Node) error {
	d, err := tx.active()
	if err != nil {
		return err
	}
	if node.OwnerOf(n) != node.Owner(tx) {
		return fmt.Errorf("%w: %s belongs to another editor", node.ErrInvalidArgument, n.Key())
	}
	d.nodes[n.Key()] = n
	return nil
}

// Writable returns the draft version of n, cloning the published
// version on first write.
func (tx *Txn) Writable(n node.Node) (node.Node, error) {
	d, err := tx.active()
	if err != nil {
		return nil, err
	}
	k := n.Key()
	if w, ok := d.nodes[k]; ok {
		return w, nil
	}
	cur, ok := d.base.Node(k)
	if !ok {
		return nil, fmt.Errorf("%w: %s", node.ErrNodeNotFound, k)
	}
	w := cur.Clone()
	d.nodes[k] = w
	return w, nil
}

// Latest returns the draft version of key inside an update, else the
// published one.
func (tx *Txn) Latest(key node.Key) (node.Node, bool) {
	if d := tx.e.pending.Load(); d != nil {
		return d.get(key)
	}
	return tx.e.State().Node(key)
}

// NoteSplit records a split for selection remapping.
func (tx *Txn) NoteSplit(key node.Key, parts []node.Key, sizes []int) {
	if d := tx.e.pending.Load(); d != nil {
		d.noteSplit(key, parts, sizes)
	}
}

// NoteReplace records a replacement for selection remapping.
func (tx *Txn) NoteReplace(old, with node.Key) {
	if d := tx.e.pending.Load(); d != nil {
		d.replaced[old] = with
	}
}

// ============================================================================
// Document access
// ============================================================================

// Root returns the latest root.
func (tx *Txn) Root() *node.Root {
	n, _ := tx.Latest(node.RootKey)
	r, _ := n.(*node.Root)
	return r
}

// Node returns the latest version of key.
func (tx *Txn) Node(key node.Key) (node.Node, bool) {
	return tx.Latest(key)
}

// Create builds a node of a registered type from string arguments.
func (tx *Txn) Create(typ string, args ...string) (node.Node, error) {
	return tx.e.registry.Create(tx, typ, args...)
}

// ============================================================================
// Selection
// ============================================================================

// Selection returns the draft selection, moved across the splits and
// replacements made so far in the transaction.
func (tx *Txn) Selection() (state.Selection, bool) {
	d, err := tx.active()
	if err != nil {
		return tx.e.State().Selection()
	}
	return d.current()
}

// SetSelection replaces the selection. Both points must resolve and
// their offsets must lie within their nodes.
func (tx *Txn) SetSelection(sel state.Selection) error {
	d, err := tx.active()
	if err != nil {
		return err
	}
	for _, p := range []state.Point{sel.Anchor, sel.Focus} {
		n, ok := d.get(p.Key)
		if !ok {
			return fmt.Errorf("%w: %s does not resolve", state.ErrInvalidSelection, p.Key)
		}
		if p.Offset < 0 || p.Offset > node.Size(n) {
			return fmt.Errorf("%w: offset %d out of range for %s", state.ErrInvalidSelection, p.Offset, p.Key)
		}
	}
	d.selection = &sel
	d.resetNotes()
	return nil
}

// ClearSelection removes the selection.
func (tx *Txn) ClearSelection() error {
	d, err := tx.active()
	if err != nil {
		return err
	}
	d.selection = nil
	d.resetNotes()
	return nil
}

// InsertText inserts s at the collapsed selection and moves the caret
// after it.
//
// Text goes into the text-like node under the caret unless the node is
// immutable, or the caret is at its end and the node refuses trailing
// text. Then, as for other leaves, a new text node is placed beside it:
// before it when the caret is at its start, after it otherwise. At an
// element, a new text node is inserted at the child offset.
func (tx *Txn) InsertText(s string) error {
	d, err := tx.active()
	if err != nil {
		return err
	}
	sel, ok := d.current()
	if !ok {
		return ErrNoSelection
	}
	if !sel.IsCollapsed() {
		return fmt.Errorf("%w: selection is not collapsed", node.ErrInvalidArgument)
	}
	if s == "" {
		return nil
	}

	p := sel.Anchor
	n, ok := d.get(p.Key)
	if !ok {
		return fmt.Errorf("%w: %s", node.ErrNodeNotFound, p.Key)
	}
	width := utf8.RuneCountInString(s)

	var caret state.Point
	tl, isText := n.(node.TextLike)
	switch {
	case isText && !node.RawFlags(n).Has(node.FlagImmutable) &&
		(p.Offset < node.Size(n) || n.CanInsertTextAtEnd()):
		runes := []rune(tl.Text())
		off := min(max(p.Offset, 0), len(runes))
		if err := tl.SetText(string(runes[:off]) + s + string(runes[off:])); err != nil {
			return err
		}
		caret = state.Point{Key: p.Key, Offset: off + width}
	case node.IsElement(n):
		t, err := tx.Create(textType, s)
		if err != nil {
			return err
		}
		if err := node.InsertAt(n, p.Offset, t); err != nil {
			return err
		}
		caret = state.Point{Key: t.Key(), Offset: width}
	default:
		t, err := tx.Create(textType, s)
		if err != nil {
			return err
		}
		place := node.InsertAfter
		if p.Offset == 0 && node.Size(n) > 0 {
			place = node.InsertBefore
		}
		if err := place(n, t); err != nil {
			return err
		}
		caret = state.Point{Key: t.Key(), Offset: width}
	}

	next := state.Caret(caret)
	d.selection = &next
	d.resetNotes()
	return nil
}
