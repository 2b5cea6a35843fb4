package node

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/theme"
)

// Node is the capability set every content type implements.
//
// Concrete types satisfy the unexported part of the interface by
// embedding Base or Element.
type Node interface {
	// Key returns the node's identity. It never changes.
	Key() Key

	// Type returns the registered type tag. It never changes.
	Type() string

	// Flags returns the latest flags of the node.
	Flags() Flags

	// Parent returns the latest parent key, or "" when detached or root.
	Parent() Key

	// TextContent returns the plain text the node contributes.
	TextContent() string

	// Clone returns a new object with identical key, type, flags, parent
	// and payload.
	Clone() Node

	// CreateDOM builds a fresh rendered element for this version.
	// CreateDOM and UpdateDOM read the payload stored in the version they
	// are called on, never the latest one.
	CreateDOM(th theme.Theme) *html.Node

	// UpdateDOM patches el, rendered for prev, to reflect this version.
	// Returning true asks the reconciler to discard el and call CreateDOM.
	UpdateDOM(prev Node, el *html.Node, th theme.Theme) bool

	// CanInsertTextAtEnd reports whether plain text may be appended
	// directly after the node's content.
	CanInsertTextAtEnd() bool

	base() *Base
}

// TextLike is implemented by leaves whose payload is editable text.
type TextLike interface {
	Node
	Text() string
	SetText(s string) error
}

// Owner connects nodes to the editor instance that created them.
// An editor transaction implements it.
type Owner interface {
	// AllocateKey returns a fresh key. It fails outside a transaction.
	AllocateKey() (Key, error)

	// Adopt registers a newly created node with the active transaction.
	Adopt(n Node) error

	// Writable returns the draft version of n, cloning the latest version
	// into the draft on first write.
	Writable(n Node) (Node, error)

	// Latest returns the most recent version of key visible to the caller.
	Latest(key Key) (Node, bool)

	// NoteSplit records that key was split into parts with the given
	// rune sizes. parts[0] is key itself.
	NoteSplit(key Key, parts []Key, sizes []int)

	// NoteReplace records that old was replaced by with at the same position.
	NoteReplace(old, with Key)
}

// Base holds the fields common to every node.
type Base struct {
	key    Key
	typ    string
	flags  Flags
	parent Key
	owner  Owner
}

// Key returns the node's key.
func (b *Base) Key() Key { return b.key }

// Type returns the node's type tag.
func (b *Base) Type() string { return b.typ }

// Flags returns the latest flags.
func (b *Base) Flags() Flags { return b.latest().flags }

// Parent returns the latest parent key.
func (b *Base) Parent() Key { return b.latest().parent }

// Owner returns the owner the node was created with.
func (b *Base) Owner() Owner { return b.owner }

func (b *Base) base() *Base { return b }

func (b *Base) latest() *Base {
	if b.owner == nil {
		return b
	}
	n, ok := b.owner.Latest(b.key)
	if !ok {
		return b
	}
	return n.base()
}

// Init gives n its identity: a fresh key from o, the type tag, zero flags
// and no parent. The node is then adopted by the active transaction.
// Factories call Init after validating their payload.
func Init(o Owner, n Node, typ string) error {
	if o == nil {
		return fmt.Errorf("%w: no owner", ErrIllegalMutation)
	}
	if typ == "" {
		return fmt.Errorf("%w: empty type", ErrInvalidArgument)
	}
	key, err := o.AllocateKey()
	if err != nil {
		return err
	}
	*n.base() = Base{key: key, typ: typ, owner: o}
	return o.Adopt(n)
}

// Latest returns the most recent version of n visible to the caller.
// If the key no longer resolves, n itself is returned.
func Latest[T Node](n T) T {
	b := n.base()
	if b.owner == nil {
		return n
	}
	l, ok := b.owner.Latest(b.key)
	if !ok {
		return n
	}
	if t, ok := l.(T); ok {
		return t
	}
	return n
}

// Writable returns the version of n that may be mutated in the active
// transaction.
func Writable[T Node](n T) (T, error) {
	var zero T
	b := n.base()
	if b.owner == nil {
		return zero, ErrIllegalMutation
	}
	w, err := b.owner.Writable(n)
	if err != nil {
		return zero, err
	}
	t, ok := w.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %s resolved to %T", ErrInvalidArgument, b.key, w)
	}
	return t, nil
}

// SetFlags replaces the flags of n.
func SetFlags(n Node, f Flags) error {
	w, err := Writable(n)
	if err != nil {
		return err
	}
	w.base().flags = f
	return nil
}

// RawParent returns the parent key stored in this version of n,
// without resolving the latest version.
func RawParent(n Node) Key {
	return n.base().parent
}

// RawFlags returns the flags stored in this version of n.
func RawFlags(n Node) Flags {
	return n.base().flags
}

// OwnerOf returns the owner n was created with.
func OwnerOf(n Node) Owner {
	return n.base().owner
}

// Size returns the extent a selection offset ranges over: runes for
// text-like nodes, children for elements, zero otherwise.
func Size(n Node) int {
	switch v := n.(type) {
	case TextLike:
		return utf8.RuneCountInString(v.Text())
	case ElementNode:
		return len(v.element().children)
	default:
		return 0
	}
}

// Resolve returns the latest version of key as seen by n's owner.
func Resolve(n Node, key Key) (Node, bool) {
	o := n.base().owner
	if o == nil {
		return nil, false
	}
	return o.Latest(key)
}
