package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/reconcile"
	"github.com/dshills/richtext/internal/engine/state"
	"github.com/dshills/richtext/internal/logging"
	"github.com/dshills/richtext/internal/metrics"
	"github.com/dshills/richtext/internal/nodes"
	"github.com/dshills/richtext/internal/theme"
)

// Editor is one editing instance: a published state, an optional
// rendered tree and the transaction machinery around them.
//
// Update, Read, SetRootElement and SetTheme may be called from multiple
// goroutines; they are admitted one at a time. Node handles are not:
// while an update runs, their getters resolve the draft no matter which
// goroutine calls them.
type Editor struct {
	id       uuid.UUID
	registry *node.Registry
	recon    *reconcile.Reconciler
	logger   *slog.Logger
	metrics  *metrics.Collector
	validate bool
	host     *html.Node

	keys    *node.KeyAllocator
	tx      *Txn
	gate    gate
	pending atomic.Pointer[draft]
	closed  atomic.Bool

	current atomic.Pointer[state.EditorState]

	mu           sync.RWMutex
	tree         *reconcile.Tree
	theme        theme.Theme
	listeners    []listenerEntry
	nextListener uint64
}

// New creates an editor holding an empty root.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		id:       uuid.New(),
		registry: nodes.NewRegistry(),
		logger:   logging.NewNop(),
		keys:     node.NewKeyAllocator(),
		theme:    theme.Theme{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("editor", e.id.String())
	e.recon = reconcile.New(e.registry, reconcile.WithLogger(e.logger))
	e.tx = &Txn{e: e}

	cur, err := state.New([]node.Node{node.NewRoot(e.tx)}, nil)
	if err != nil {
		return nil, err
	}
	e.current.Store(cur)

	if e.host != nil {
		tree := reconcile.NewTree(e.host)
		if _, err := e.recon.Mount(tree, cur, e.theme); err != nil {
			return nil, err
		}
		e.tree = tree
	}
	return e, nil
}

// ID returns the instance id.
func (e *Editor) ID() uuid.UUID {
	return e.id
}

// Registry returns the node type registry.
func (e *Editor) Registry() *node.Registry {
	return e.registry
}

// State returns the published state.
func (e *Editor) State() *state.EditorState {
	return e.current.Load()
}

// Theme returns a copy of the current theme.
func (e *Editor) Theme() theme.Theme {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.theme.Clone()
}

// RootElement returns the host element the root renders into, or nil.
func (e *Editor) RootElement() *html.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.tree == nil {
		return nil
	}
	return e.tree.Host()
}

// Element returns the element rendered for key.
func (e *Editor) Element(key node.Key) (*html.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.tree == nil {
		return nil, false
	}
	return e.tree.Element(key)
}

// Close rejects further updates. Updates already admitted finish normally.
func (e *Editor) Close() {
	e.closed.Store(true)
}

// ============================================================================
// Transactions
// ============================================================================

// Update runs fn against a draft of the published state and commits it.
//
// If fn returns an error, or panics, the draft is discarded and the
// published state is unchanged; the error is returned as is and the
// panic is re-raised. If committing fails, the error is returned and
// nothing is published.
//
// When ctx was obtained from tx.Context() of the active transaction, fn
// joins that transaction: it runs immediately, its changes commit with
// the outer update, and its error poisons the outer update.
//
// Any other ctx queues behind the active transaction. Called from inside
// fn with such a context, Update waits for the update its own caller is
// running: it returns ctx.Err() once ctx is done, and with
// context.Background() it never returns. Nested updates must pass
// tx.Context() or call tx.Update instead.
func (e *Editor) Update(ctx context.Context, fn func(tx *Txn) error) error {
	if d := e.joined(ctx); d != nil {
		return e.nested(d, fn)
	}
	if e.closed.Load() {
		return ErrEditorClosed
	}
	if err := e.gate.acquire(ctx); err != nil {
		return err
	}

	start := time.Now()
	d := newDraft(e.State())
	d.ctx = context.WithValue(ctx, draftKey{}, d)
	e.pending.Store(d)

	finished := false
	defer func() {
		if finished {
			return
		}
		// fn panicked.
		e.pending.Store(nil)
		e.gate.release()
		e.metrics.ObserveUpdate(metrics.ResultDiscarded, time.Since(start))
		e.logger.Warn("update discarded", "reason", "panic")
	}()

	err := e.nested(d, fn)
	result := metrics.ResultCommitted
	var ev *UpdateEvent
	if d.err != nil {
		err = d.err
		result = metrics.ResultDiscarded
		e.logger.Warn("update discarded", "error", err)
	} else {
		ev, err = e.commit(d)
		if err != nil {
			result = metrics.ResultFailed
			e.logger.Warn("commit failed", "error", err)
		}
	}

	e.pending.Store(nil)
	e.gate.release()
	finished = true
	e.metrics.ObserveUpdate(result, time.Since(start))

	if ev != nil {
		e.notify(*ev)
	}
	return err
}

// Read runs fn with the published state. Inside an update (ctx from
// tx.Context()) it runs immediately; otherwise it waits for its turn so
// that node getters do not observe a draft in progress.
func (e *Editor) Read(ctx context.Context, fn func(s *state.EditorState) error) error {
	if d := e.joined(ctx); d != nil {
		return fn(d.base)
	}
	if err := e.gate.acquire(ctx); err != nil {
		return err
	}
	defer e.gate.release()
	return fn(e.State())
}

func (e *Editor) joined(ctx context.Context) *draft {
	if ctx == nil {
		return nil
	}
	d, _ := ctx.Value(draftKey{}).(*draft)
	if d != nil && e.pending.Load() == d {
		return d
	}
	return nil
}

// nested runs fn within d. The first error poisons d.
func (e *Editor) nested(d *draft, fn func(tx *Txn) error) error {
	if d.err != nil {
		return d.err
	}
	d.depth++
	err := fn(e.tx)
	d.depth--
	if err != nil && d.err == nil {
		d.err = err
	}
	return err
}

// commit turns d into the next published state.
func (e *Editor) commit(d *draft) (*UpdateEvent, error) {
	changes, collected, err := e.collect(d)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 && sameSelection(d.base, d.selection) {
		return nil, nil
	}

	next, err := d.base.Apply(changes, nil)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	next, err = next.WithSelection(remap(d, next))
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if e.validate {
		if err := next.Validate(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
	}
	dirty := dirtyKeys(next, changes)

	e.mu.Lock()
	defer e.mu.Unlock()

	var patch reconcile.Patch
	if e.tree != nil {
		patch, err = e.recon.Reconcile(e.tree, d.base, next, dirty, e.theme)
		if err != nil {
			return nil, err
		}
		e.recordOps(patch)
	}
	e.current.Store(next)

	e.logger.Debug("committed",
		"changed", len(changes),
		"collected", collected,
		"dirty", len(dirty),
		"ops", patch.Len(),
	)
	return &UpdateEvent{
		EditorID: e.id,
		Prev:     d.base,
		Next:     next,
		Dirty:    dirty,
		Patch:    patch,
	}, nil
}

func (e *Editor) recordOps(p reconcile.Patch) {
	for _, k := range []reconcile.OpKind{reconcile.OpCreate, reconcile.OpPatch, reconcile.OpMove, reconcile.OpRemove} {
		e.metrics.AddOps(k.String(), p.Count(k))
	}
	e.metrics.SetKeysIssued(e.keys.Issued())
}

// ============================================================================
// Rendering
// ============================================================================

// SetRootElement mounts the editor into host, rendering the published
// state from scratch. A nil host unmounts; the previous host keeps
// whatever it contains.
func (e *Editor) SetRootElement(ctx context.Context, host *html.Node) error {
	if err := e.gate.acquire(ctx); err != nil {
		return err
	}
	defer e.gate.release()

	e.mu.Lock()
	defer e.mu.Unlock()

	if host == nil {
		e.tree = nil
		return nil
	}
	tree := reconcile.NewTree(host)
	patch, err := e.recon.Mount(tree, e.State(), e.theme)
	if err != nil {
		return err
	}
	e.tree = tree
	e.recordOps(patch)
	return nil
}

// SetTheme replaces the theme and re-renders every node with it.
func (e *Editor) SetTheme(ctx context.Context, th theme.Theme) error {
	if err := e.gate.acquire(ctx); err != nil {
		return err
	}
	defer e.gate.release()

	e.mu.Lock()
	defer e.mu.Unlock()

	th = th.Clone()
	if e.tree != nil {
		cur := e.State()
		patch, err := e.recon.Reconcile(e.tree, cur, cur, nil, th)
		if err != nil {
			return err
		}
		e.recordOps(patch)
	}
	e.theme = th
	e.logger.Debug("theme changed", "classes", len(th))
	return nil
}

func sameSelection(s *state.EditorState, sel *state.Selection) bool {
	cur, ok := s.Selection()
	if sel == nil {
		return !ok
	}
	return ok && cur == *sel
}
