package reconcile

import (
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/dom"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/state"
	"github.com/dshills/richtext/internal/logging"
	"github.com/dshills/richtext/internal/theme"
)

// Reconciler applies state differences to a rendered tree.
// A Reconciler holds no per-run state and may be shared.
type Reconciler struct {
	registry *node.Registry
	logger   *slog.Logger
}

// New creates a reconciler that dispatches through reg.
func New(reg *node.Registry, opts ...Option) *Reconciler {
	r := &Reconciler{
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount renders next from scratch into t's host, discarding whatever the
// host contained.
func (r *Reconciler) Mount(t *Tree, next *state.EditorState, th theme.Theme) (Patch, error) {
	x := r.newRun(t, nil, next, nil, th)
	if err := x.checkNew(node.RootKey); err != nil {
		return Patch{}, fmt.Errorf("%w: %w", ErrReconciliation, err)
	}

	dom.RemoveChildren(t.host)
	t.elements = map[node.Key]*html.Node{node.RootKey: t.host}
	root := next.Root()
	for _, k := range node.RawChildren(root) {
		c, _ := next.Node(k)
		t.host.AppendChild(x.build(c, node.RootKey))
	}
	x.commit()

	r.logger.Debug("mounted", "nodes", t.Len(), "ops", x.patch.Len())
	return x.patch, nil
}

// Reconcile patches t, which renders prev, so that it renders next.
//
// dirty names the keys whose subtree may differ; a nil set reconciles the
// whole tree and calls UpdateDOM on every node, which is how theme
// changes are applied. On error the tree is unchanged.
func (r *Reconciler) Reconcile(t *Tree, prev, next *state.EditorState, dirty map[node.Key]struct{}, th theme.Theme) (Patch, error) {
	x := r.newRun(t, prev, next, dirty, th)
	if err := x.check(); err != nil {
		r.logger.Warn("reconciliation rejected", "error", err)
		return Patch{}, fmt.Errorf("%w: %w", ErrReconciliation, err)
	}

	x.reconcileNode(node.RootKey, nil)
	x.commit()

	r.logger.Debug("reconciled",
		"create", x.patch.Count(OpCreate),
		"patch", x.patch.Count(OpPatch),
		"move", x.patch.Count(OpMove),
		"remove", x.patch.Count(OpRemove),
	)
	return x.patch, nil
}

// run is the state of one reconciliation.
type run struct {
	registry *node.Registry
	tree     *Tree
	prev     *state.EditorState
	next     *state.EditorState
	dirty    map[node.Key]struct{}
	full     bool
	theme    theme.Theme

	// created and removed are folded into tree.elements by commit, so
	// lookups of previous elements see the tree as it was rendered.
	created map[node.Key]*html.Node
	removed map[node.Key]struct{}

	patch Patch
}

func (r *Reconciler) newRun(t *Tree, prev, next *state.EditorState, dirty map[node.Key]struct{}, th theme.Theme) *run {
	return &run{
		registry: r.registry,
		tree:     t,
		prev:     prev,
		next:     next,
		dirty:    dirty,
		full:     dirty == nil,
		theme:    th,
		created:  make(map[node.Key]*html.Node),
		removed:  make(map[node.Key]struct{}),
	}
}

// ============================================================================
// Validation
// ============================================================================

func (x *run) check() error {
	if x.next.Root() == nil {
		return fmt.Errorf("%w: next state has no root", node.ErrNodeNotFound)
	}
	if _, ok := x.tree.elements[node.RootKey]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingElement, node.RootKey)
	}
	return x.checkNode(node.RootKey)
}

// checkNode mirrors reconcileNode for a key present in both states.
func (x *run) checkNode(k node.Key) error {
	pn, _ := x.prev.Node(k)
	nn, _ := x.next.Node(k)
	if err := x.registry.Check(nn); err != nil {
		return err
	}
	if !x.visits(k, pn, nn) {
		return nil
	}

	scope := x.tree.elements[k]
	prevKeys := node.RawChildren(pn)
	prevSet := keySet(prevKeys)
	nextSet := keySet(node.RawChildren(nn))
	for _, pc := range prevKeys {
		el, ok := x.tree.elements[pc]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingElement, pc)
		}
		if el.Parent != scope {
			return fmt.Errorf("%w: element of %s is not rendered under %s", ErrMissingElement, pc, k)
		}
		if _, ok := nextSet[pc]; ok && x.kept(pc) {
			if err := x.checkNode(pc); err != nil {
				return err
			}
		}
	}
	for _, nc := range node.RawChildren(nn) {
		if _, ok := prevSet[nc]; !ok || !x.kept(nc) {
			if err := x.checkNew(nc); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkNew verifies that every node of a subtree about to be created is registered.
func (x *run) checkNew(k node.Key) error {
	n, ok := x.next.Node(k)
	if !ok {
		return fmt.Errorf("%w: %s", node.ErrNodeNotFound, k)
	}
	if err := x.registry.Check(n); err != nil {
		return err
	}
	for _, c := range node.RawChildren(n) {
		if err := x.checkNew(c); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// Application
// ============================================================================

// visits reports whether the subtree at k must be examined.
func (x *run) visits(k node.Key, pn, nn node.Node) bool {
	if x.full || pn != nn {
		return true
	}
	_, ok := x.dirty[k]
	return ok
}

// kept reports whether k keeps its element: it exists in both states
// with the same type. Callers ensure k is a child of the same parent in both.
func (x *run) kept(k node.Key) bool {
	pn, ok := x.prev.Node(k)
	if !ok {
		return false
	}
	nn, ok := x.next.Node(k)
	return ok && nn.Type() == pn.Type()
}

func (x *run) element(k node.Key) *html.Node {
	if el, ok := x.created[k]; ok {
		return el
	}
	return x.tree.elements[k]
}

// reconcileNode handles a key present in both states with the same type.
// parent is the element containing k's element; nil for the root.
func (x *run) reconcileNode(k node.Key, parent *html.Node) {
	pn, _ := x.prev.Node(k)
	nn, _ := x.next.Node(k)
	if !x.visits(k, pn, nn) {
		return
	}
	el := x.element(k)

	if pn != nn || x.full {
		if nn.UpdateDOM(pn, el, x.theme) && k != node.RootKey {
			x.unmap(k, pn)
			x.patch.add(OpRemove, k, node.RawParent(nn))
			fresh := x.build(nn, node.RawParent(nn))
			parent.InsertBefore(fresh, el)
			parent.RemoveChild(el)
			return
		}
		x.patch.add(OpPatch, k, node.RawParent(nn))
	}

	if node.IsElement(nn) {
		x.reconcileChildren(pn, nn, el)
	}
}

// reconcileChildren applies remove, move, insert, then recurses into kept
// children, so el's children end up in next order.
func (x *run) reconcileChildren(pn, nn node.Node, el *html.Node) {
	prevKeys := node.RawChildren(pn)
	nextKeys := node.RawChildren(nn)
	nextSet := keySet(nextKeys)
	parentKey := nn.Key()

	keep := make(map[node.Key]int, len(prevKeys))
	for _, k := range prevKeys {
		if _, ok := nextSet[k]; ok && x.kept(k) {
			keep[k] = len(keep)
			continue
		}
		pc, _ := x.prev.Node(k)
		child := x.tree.elements[k]
		el.RemoveChild(child)
		x.unmap(k, pc)
		x.patch.add(OpRemove, k, parentKey)
	}

	var order []node.Key
	var ranks []int
	for _, k := range nextKeys {
		if r, ok := keep[k]; ok {
			order = append(order, k)
			ranks = append(ranks, r)
		}
	}
	stay := increasingRun(ranks)
	var anchor *html.Node
	for i := len(order) - 1; i >= 0; i-- {
		child := x.tree.elements[order[i]]
		if !stay[i] {
			el.RemoveChild(child)
			el.InsertBefore(child, anchor)
			x.patch.add(OpMove, order[i], parentKey)
		}
		anchor = child
	}

	anchor = nil
	for i := len(nextKeys) - 1; i >= 0; i-- {
		k := nextKeys[i]
		if _, ok := keep[k]; ok {
			anchor = x.tree.elements[k]
			continue
		}
		c, _ := x.next.Node(k)
		fresh := x.build(c, parentKey)
		el.InsertBefore(fresh, anchor)
		anchor = fresh
	}

	for _, k := range order {
		x.reconcileNode(k, el)
	}
}

// build creates the element subtree for n.
func (x *run) build(n node.Node, parent node.Key) *html.Node {
	el := n.CreateDOM(x.theme)
	if el == nil {
		el = dom.NewElement("span", "")
	}
	x.created[n.Key()] = el
	x.patch.add(OpCreate, n.Key(), parent)
	for _, k := range node.RawChildren(n) {
		c, ok := x.next.Node(k)
		if !ok {
			continue
		}
		el.AppendChild(x.build(c, n.Key()))
	}
	return el
}

// unmap records that k and its previous descendants lost their elements.
func (x *run) unmap(k node.Key, pn node.Node) {
	x.removed[k] = struct{}{}
	if pn == nil {
		return
	}
	for _, c := range node.RawChildren(pn) {
		cn, _ := x.prev.Node(c)
		x.unmap(c, cn)
	}
}

func (x *run) commit() {
	for k := range x.removed {
		x.tree.Forget(k)
	}
	for k, el := range x.created {
		x.tree.elements[k] = el
	}
}

// increasingRun marks a longest strictly increasing subsequence of ranks.
// Elements outside it are the minimal set that must move.
func increasingRun(ranks []int) []bool {
	stay := make([]bool, len(ranks))
	if len(ranks) == 0 {
		return stay
	}
	// tails[i] is the index in ranks of the smallest tail of an increasing
	// run of length i+1.
	tails := make([]int, 0, len(ranks))
	prev := make([]int, len(ranks))
	for i, r := range ranks {
		j := sort.Search(len(tails), func(j int) bool { return ranks[tails[j]] >= r })
		if j > 0 {
			prev[i] = tails[j-1]
		} else {
			prev[i] = -1
		}
		if j == len(tails) {
			tails = append(tails, i)
		} else {
			tails[j] = i
		}
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		stay[i] = true
	}
	return stay
}

func keySet(keys []node.Key) map[node.Key]struct{} {
	s := make(map[node.Key]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}
