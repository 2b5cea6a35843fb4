package node

import (
	"fmt"
	"slices"
)

// Append adds children to the end of parent, in order. A child that
// already has a parent is detached from it first.
func Append(parent Node, children ...Node) error {
	for _, c := range children {
		err := place(parent, c, func(keys []Key) (int, error) {
			return len(keys), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertAt inserts child into parent at index. Index is clamped to the
// child count.
func InsertAt(parent Node, index int, child Node) error {
	return place(parent, child, func(keys []Key) (int, error) {
		return min(max(index, 0), len(keys)), nil
	})
}

// InsertBefore places n immediately before target under target's parent.
func InsertBefore(target, n Node) error {
	return insertBeside(target, n, 0)
}

// InsertAfter places n immediately after target under target's parent.
func InsertAfter(target, n Node) error {
	return insertBeside(target, n, 1)
}

func insertBeside(target, n Node, delta int) error {
	if target.Key() == n.Key() {
		return fmt.Errorf("%w: cannot insert %s next to itself", ErrInvalidArgument, n.Key())
	}
	pk := Latest(target).base().parent
	if pk == "" {
		return fmt.Errorf("%w: target %s is not attached", ErrInvalidArgument, target.Key())
	}
	parent, ok := Resolve(target, pk)
	if !ok {
		return fmt.Errorf("%w: parent %s of %s", ErrNodeNotFound, pk, target.Key())
	}
	tk := target.Key()
	return place(parent, n, func(keys []Key) (int, error) {
		i := slices.Index(keys, tk)
		if i < 0 {
			return 0, fmt.Errorf("%w: %s is not a child of %s", ErrNodeNotFound, tk, pk)
		}
		return i + delta, nil
	})
}

// Remove detaches n from its parent. The node's key becomes unreachable
// and is collected at commit unless n is attached again.
func Remove(n Node) error {
	if n.Key() == RootKey {
		return fmt.Errorf("%w: the root cannot be removed", ErrInvalidArgument)
	}
	return detach(n)
}

// Replace puts with at old's position and detaches old. Selection points
// on old move to with.
func Replace(old, with Node) error {
	if old.Key() == RootKey || with.Key() == RootKey {
		return fmt.Errorf("%w: the root cannot be replaced", ErrInvalidArgument)
	}
	if err := InsertAfter(old, with); err != nil {
		return err
	}
	if err := detach(old); err != nil {
		return err
	}
	old.base().owner.NoteReplace(old.Key(), with.Key())
	return nil
}

// place detaches child and inserts it into parent at the index chosen by
// at from parent's current child list.
func place(parent, child Node, at func([]Key) (int, error)) error {
	if child.Key() == RootKey {
		return fmt.Errorf("%w: the root cannot be a child", ErrInvalidArgument)
	}
	pe, ok := parent.(ElementNode)
	if !ok {
		return fmt.Errorf("%w: %s (%s)", ErrNotElement, parent.Key(), parent.Type())
	}
	if parent.base().owner != child.base().owner {
		return fmt.Errorf("%w: %s and %s belong to different editors", ErrInvalidArgument, parent.Key(), child.Key())
	}
	if err := checkAncestry(parent, child.Key()); err != nil {
		return err
	}
	if err := detach(child); err != nil {
		return err
	}

	wp, err := Writable(pe)
	if err != nil {
		return err
	}
	el := wp.element()
	i, err := at(el.children)
	if err != nil {
		return err
	}
	el.children = slices.Insert(el.children, i, child.Key())

	wc, err := Writable(child)
	if err != nil {
		return err
	}
	wc.base().parent = parent.Key()
	return nil
}

// checkAncestry rejects inserting key under itself or one of its descendants.
func checkAncestry(parent Node, key Key) error {
	seen := 0
	for k := parent.Key(); k != ""; seen++ {
		if k == key {
			return fmt.Errorf("%w: %s would become its own ancestor", ErrInvalidArgument, key)
		}
		p, ok := Resolve(parent, k)
		if !ok {
			return nil
		}
		k = p.base().parent
		if seen > 1<<20 {
			return fmt.Errorf("%w: parent chain of %s does not terminate", ErrInvalidArgument, parent.Key())
		}
	}
	return nil
}

func detach(n Node) error {
	wc, err := Writable(n)
	if err != nil {
		return err
	}
	pk := wc.base().parent
	if pk == "" {
		return nil
	}
	wc.base().parent = ""

	p, ok := Resolve(n, pk)
	if !ok {
		return nil
	}
	pe, ok := p.(ElementNode)
	if !ok {
		return fmt.Errorf("%w: parent %s of %s", ErrNotElement, pk, n.Key())
	}
	wp, err := Writable(pe)
	if err != nil {
		return err
	}
	el := wp.element()
	if i := slices.Index(el.children, n.Key()); i >= 0 {
		el.children = slices.Delete(el.children, i, i+1)
	}
	return nil
}
