package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dshills/richtext/internal/dom"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/reconcile"
	"github.com/dshills/richtext/internal/engine/state"
	"github.com/dshills/richtext/internal/metrics"
	"github.com/dshills/richtext/internal/nodes"
	"github.com/dshills/richtext/internal/theme"
)

// ============================================================================
// Test fixtures
// ============================================================================

var errBoom = errors.New("boom")

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	e, err := New(append([]Option{WithStateValidation()}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func update(t *testing.T, e *Editor, fn func(tx *Txn) error) {
	t.Helper()
	if err := e.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

// addParagraph appends a paragraph holding one text node per string.
func addParagraph(tx *Txn, texts ...string) (*nodes.Paragraph, []*nodes.Text, error) {
	p, err := nodes.NewParagraph(tx)
	if err != nil {
		return nil, nil, err
	}
	if err := node.Append(tx.Root(), p); err != nil {
		return nil, nil, err
	}
	var out []*nodes.Text
	for _, s := range texts {
		txt, err := nodes.NewText(tx, s)
		if err != nil {
			return nil, nil, err
		}
		if err := node.Append(p, txt); err != nil {
			return nil, nil, err
		}
		out = append(out, txt)
	}
	return p, out, nil
}

func lookup[T node.Node](tx *Txn, k node.Key) T {
	n, _ := tx.Node(k)
	v, _ := n.(T)
	return v
}

func selection(t *testing.T, e *Editor) state.Selection {
	t.Helper()
	sel, ok := e.State().Selection()
	if !ok {
		t.Fatal("expected a selection")
	}
	return sel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

// ============================================================================
// Construction
// ============================================================================

func TestNewEditor(t *testing.T) {
	e := newEditor(t)
	if e.ID() == uuid.Nil {
		t.Error("expected an instance id")
	}
	s := e.State()
	if s.Len() != 1 {
		t.Errorf("expected only the root, got %d nodes", s.Len())
	}
	if !node.IsRoot(s.Root()) {
		t.Errorf("expected root, got %T", s.Root())
	}
	if _, ok := s.Selection(); ok {
		t.Error("expected no selection")
	}
	if e.RootElement() != nil {
		t.Error("expected headless editor")
	}
}

func TestEditorsAreIndependent(t *testing.T) {
	a := newEditor(t)
	b := newEditor(t)
	if a.ID() == b.ID() {
		t.Error("instance ids should differ")
	}
	var pa *nodes.Paragraph
	var kb node.Key
	update(t, a, func(tx *Txn) error {
		var err error
		pa, _, err = addParagraph(tx)
		return err
	})
	update(t, b, func(tx *Txn) error {
		p, _, err := addParagraph(tx)
		if err != nil {
			return err
		}
		kb = p.Key()
		if err := node.Append(tx.Root(), pa); !errors.Is(err, node.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for a foreign node, got %v", err)
		}
		return nil
	})
	if pa.Key() != kb {
		t.Errorf("each editor allocates its own keys, got %s and %s", pa.Key(), kb)
	}
}

// ============================================================================
// Transactions
// ============================================================================

func TestUpdateCommits(t *testing.T) {
	e := newEditor(t)
	prev := e.State()
	update(t, e, func(tx *Txn) error {
		_, _, err := addParagraph(tx, "hello", " world")
		return err
	})
	update(t, e, func(tx *Txn) error {
		_, _, err := addParagraph(tx, "second")
		return err
	})

	next := e.State()
	if next == prev {
		t.Fatal("expected a new state")
	}
	if prev.Len() != 1 {
		t.Errorf("previous state must not change, has %d nodes", prev.Len())
	}
	if got, want := next.Root().TextContent(), "hello world\n\nsecond"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGettersResolveDraft(t *testing.T) {
	e := newEditor(t)
	var txt *nodes.Text
	update(t, e, func(tx *Txn) error {
		_, texts, err := addParagraph(tx, "foo")
		txt = texts[0]
		return err
	})
	update(t, e, func(tx *Txn) error {
		if err := txt.SetText("bar"); err != nil {
			return err
		}
		if txt.Text() != "bar" {
			t.Errorf("inside the update expected %q, got %q", "bar", txt.Text())
		}
		return e.Read(tx.Context(), func(s *state.EditorState) error {
			n, _ := s.Node(txt.Key())
			if n.(*nodes.Text).TextContent() != "bar" {
				t.Errorf("getter on a published handle should still resolve the draft")
			}
			if s != e.State() {
				t.Error("Read inside an update sees the published state")
			}
			return nil
		})
	})
	if txt.Text() != "bar" {
		t.Errorf("after commit expected %q, got %q", "bar", txt.Text())
	}
}

func TestCallbackErrorDiscards(t *testing.T) {
	e := newEditor(t)
	prev := e.State()
	var discarded node.Key

	err := e.Update(context.Background(), func(tx *Txn) error {
		p, _, err := addParagraph(tx, "lost")
		if err != nil {
			return err
		}
		discarded = p.Key()
		return errBoom
	})
	if err != errBoom {
		t.Fatalf("expected the callback error unchanged, got %v", err)
	}
	if e.State() != prev {
		t.Error("a failed update must not publish")
	}

	update(t, e, func(tx *Txn) error {
		p, _, err := addParagraph(tx)
		if err != nil {
			return err
		}
		if p.Key() == discarded {
			t.Errorf("key %s reused after discard", discarded)
		}
		return nil
	})
}

func TestNestedUpdateJoins(t *testing.T) {
	e := newEditor(t)
	events := 0
	e.RegisterUpdateListener(func(UpdateEvent) { events++ })

	update(t, e, func(tx *Txn) error {
		if _, _, err := addParagraph(tx, "outer"); err != nil {
			return err
		}
		return e.Update(tx.Context(), func(inner *Txn) error {
			if inner != tx {
				t.Error("nested update should share the handle")
			}
			_, _, err := addParagraph(inner, "inner")
			return err
		})
	})

	if events != 1 {
		t.Errorf("expected one commit, got %d", events)
	}
	if got, want := e.State().Root().TextContent(), "outer\n\ninner"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNestedUpdateWithForeignContextQueues(t *testing.T) {
	e := newEditor(t)
	ran := false

	update(t, e, func(tx *Txn) error {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := e.Update(ctx, func(*Txn) error {
			ran = true
			return nil
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}
		_, _, err = addParagraph(tx, "outer")
		return err
	})

	if ran {
		t.Error("queued update must not run inside the active one")
	}
	if n := e.gate.waiting(); n != 0 {
		t.Errorf("expected no queued callers, got %d", n)
	}
	if got := e.State().Root().TextContent(); got != "outer" {
		t.Errorf("expected %q, got %q", "outer", got)
	}
}

func TestNestedErrorPoisonsOuter(t *testing.T) {
	e := newEditor(t)
	prev := e.State()

	err := e.Update(context.Background(), func(tx *Txn) error {
		if _, _, err := addParagraph(tx, "outer"); err != nil {
			return err
		}
		inner := tx.Update(func(tx *Txn) error { return errBoom })
		if inner != errBoom {
			t.Errorf("expected nested error, got %v", inner)
		}
		if again := tx.Update(func(*Txn) error { return nil }); again != errBoom {
			t.Errorf("poisoned transaction should refuse further work, got %v", again)
		}
		return nil
	})
	if err != errBoom {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if e.State() != prev {
		t.Error("a poisoned update must not publish")
	}
}

func TestPanicDiscardsAndReleases(t *testing.T) {
	e := newEditor(t)
	prev := e.State()

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Errorf("expected the panic to propagate, got %v", r)
			}
		}()
		_ = e.Update(context.Background(), func(tx *Txn) error {
			if _, _, err := addParagraph(tx, "lost"); err != nil {
				return err
			}
			panic("kaboom")
		})
	}()

	if e.State() != prev {
		t.Error("a panicking update must not publish")
	}
	update(t, e, func(tx *Txn) error {
		_, _, err := addParagraph(tx, "next")
		return err
	})
	if got := e.State().Root().TextContent(); got != "next" {
		t.Errorf("expected %q, got %q", "next", got)
	}
}

func TestMutationOutsideUpdate(t *testing.T) {
	e := newEditor(t)
	var tx *Txn
	var txt *nodes.Text
	update(t, e, func(cur *Txn) error {
		tx = cur
		_, texts, err := addParagraph(cur, "foo")
		txt = texts[0]
		return err
	})

	if err := txt.SetText("bar"); !errors.Is(err, node.ErrIllegalMutation) {
		t.Errorf("expected ErrIllegalMutation, got %v", err)
	}
	if _, err := nodes.NewParagraph(tx); !errors.Is(err, node.ErrIllegalMutation) {
		t.Errorf("expected ErrIllegalMutation, got %v", err)
	}
	if err := node.Remove(txt); !errors.Is(err, node.ErrIllegalMutation) {
		t.Errorf("expected ErrIllegalMutation, got %v", err)
	}
	if txt.Text() != "foo" {
		t.Errorf("expected %q, got %q", "foo", txt.Text())
	}
}

func TestKeysUnique(t *testing.T) {
	e := newEditor(t)
	seen := make(map[node.Key]bool)
	for range 5 {
		update(t, e, func(tx *Txn) error {
			p, texts, err := addParagraph(tx, "a", "b", "c")
			if err != nil {
				return err
			}
			for _, n := range []node.Node{p, texts[0], texts[1], texts[2]} {
				if n.Key() == node.RootKey || seen[n.Key()] {
					t.Errorf("duplicate key %s", n.Key())
				}
				seen[n.Key()] = true
			}
			return node.Remove(p)
		})
	}
}

func TestGarbageCollection(t *testing.T) {
	e := newEditor(t)
	var pk node.Key
	var tk []node.Key
	update(t, e, func(tx *Txn) error {
		if _, err := nodes.NewText(tx, "orphan"); err != nil {
			return err
		}
		p, texts, err := addParagraph(tx, "a", "b")
		pk = p.Key()
		tk = []node.Key{texts[0].Key(), texts[1].Key()}
		return err
	})
	if got := e.State().Len(); got != 4 {
		t.Errorf("detached nodes should be collected, state has %d nodes", got)
	}

	update(t, e, func(tx *Txn) error {
		return node.Remove(lookup[*nodes.Paragraph](tx, pk))
	})
	s := e.State()
	for _, k := range append(tk, pk) {
		if s.Has(k) {
			t.Errorf("%s should be collected with its subtree", k)
		}
	}
	if s.Len() != 1 {
		t.Errorf("expected only the root, got %d nodes", s.Len())
	}
}

func TestReparentKeepsSubtree(t *testing.T) {
	e := newEditor(t)
	var p1, p2 *nodes.Paragraph
	var a *nodes.Text
	update(t, e, func(tx *Txn) error {
		var err error
		var texts []*nodes.Text
		p1, texts, err = addParagraph(tx, "a")
		if err != nil {
			return err
		}
		a = texts[0]
		p2, _, err = addParagraph(tx, "b")
		return err
	})
	update(t, e, func(tx *Txn) error {
		return node.Append(p2, a)
	})

	s := e.State()
	if !s.IsAttached(a.Key()) {
		t.Fatal("moved node should survive")
	}
	if a.Parent() != p2.Key() {
		t.Errorf("expected parent %s, got %s", p2.Key(), a.Parent())
	}
	if p1.ChildCount() != 0 {
		t.Errorf("expected previous parent to be empty, got %d children", p1.ChildCount())
	}
}

func TestUnknownTypeFailsCommit(t *testing.T) {
	reg := node.NewRegistry()
	reg.MustRegister(nodes.Classes()[0])
	e := newEditor(t, WithRegistry(reg))
	prev := e.State()

	err := e.Update(context.Background(), func(tx *Txn) error {
		p, err := nodes.NewParagraph(tx)
		if err != nil {
			return err
		}
		txt, err := nodes.NewText(tx, "x")
		if err != nil {
			return err
		}
		if err := node.Append(tx.Root(), p); err != nil {
			return err
		}
		return node.Append(p, txt)
	})
	if !errors.Is(err, node.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	if e.State() != prev {
		t.Error("failed commit must not publish")
	}
}

// ============================================================================
// Admission
// ============================================================================

func TestUpdatesAdmittedInOrder(t *testing.T) {
	e := newEditor(t)
	ctx := context.Background()
	hold := make(chan struct{})
	started := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		first <- e.Update(ctx, func(*Txn) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := e.Update(ctx, func(*Txn) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}()
		waitFor(t, func() bool { return e.gate.waiting() == i+1 })
	}

	close(hold)
	wg.Wait()
	if err := <-first; err != nil {
		t.Fatalf("first update: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, order); diff != "" {
		t.Errorf("admission order mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateHonorsContextWhileQueued(t *testing.T) {
	e := newEditor(t)
	hold := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- e.Update(context.Background(), func(*Txn) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := e.Update(ctx, func(*Txn) error {
		t.Error("callback must not run")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if n := e.gate.waiting(); n != 0 {
		t.Errorf("expected empty queue, got %d", n)
	}

	close(hold)
	if err := <-done; err != nil {
		t.Fatalf("first update: %v", err)
	}
	update(t, e, func(*Txn) error { return nil })
}

func TestClose(t *testing.T) {
	e := newEditor(t)
	e.Close()
	err := e.Update(context.Background(), func(*Txn) error { return nil })
	if !errors.Is(err, ErrEditorClosed) {
		t.Errorf("expected ErrEditorClosed, got %v", err)
	}
}

// ============================================================================
// Listeners
// ============================================================================

func TestUpdateListeners(t *testing.T) {
	e := newEditor(t)
	var got []UpdateEvent
	unregister := e.RegisterUpdateListener(func(ev UpdateEvent) { got = append(got, ev) })

	prev := e.State()
	var pk node.Key
	update(t, e, func(tx *Txn) error {
		p, _, err := addParagraph(tx, "x")
		pk = p.Key()
		return err
	})
	if len(got) != 1 {
		t.Fatalf("expected one event, got %d", len(got))
	}
	ev := got[0]
	if ev.Prev != prev || ev.Next != e.State() {
		t.Error("event should carry the previous and next states")
	}
	if ev.EditorID != e.ID() {
		t.Errorf("expected editor id %s, got %s", e.ID(), ev.EditorID)
	}
	for _, k := range []node.Key{node.RootKey, pk} {
		if _, ok := ev.Dirty[k]; !ok {
			t.Errorf("expected %s in the dirty set", k)
		}
	}

	unregister()
	update(t, e, func(tx *Txn) error {
		_, _, err := addParagraph(tx, "y")
		return err
	})
	if len(got) != 1 {
		t.Errorf("unregistered listener was called")
	}
}

func TestListenerMayUpdate(t *testing.T) {
	e := newEditor(t)
	once := false
	e.RegisterUpdateListener(func(UpdateEvent) {
		if once {
			return
		}
		once = true
		update(t, e, func(tx *Txn) error {
			_, _, err := addParagraph(tx, "from listener")
			return err
		})
	})
	update(t, e, func(tx *Txn) error {
		_, _, err := addParagraph(tx, "first")
		return err
	})
	if got, want := e.State().Root().TextContent(), "first\n\nfrom listener"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNoopUpdatePublishesNothing(t *testing.T) {
	e := newEditor(t)
	called := false
	e.RegisterUpdateListener(func(UpdateEvent) { called = true })
	prev := e.State()
	update(t, e, func(*Txn) error { return nil })
	if e.State() != prev || called {
		t.Error("an empty update should not publish")
	}
}

// ============================================================================
// Rendering
// ============================================================================

func TestCommitReconcilesMountedTree(t *testing.T) {
	host := dom.NewElement("div", "")
	e := newEditor(t, WithRootElement(host), WithTheme(theme.Theme{"link": "my-link-class"}))

	var l *nodes.Link
	update(t, e, func(tx *Txn) error {
		p, _, err := addParagraph(tx)
		if err != nil {
			return err
		}
		l, err = nodes.NewLink(tx, "foo", "/")
		if err != nil {
			return err
		}
		return node.Append(p, l)
	})
	if got, want := dom.InnerHTML(host), `<p><span class="my-link-class"><span>foo</span></span></p>`; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	before, _ := e.Element(l.Key())

	update(t, e, func(tx *Txn) error { return l.SetText("bar") })

	after, _ := e.Element(l.Key())
	if after != before {
		t.Error("element identity should survive a text change")
	}
	if got, want := dom.OuterHTML(after), `<span class="my-link-class"><span>bar</span></span>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReconcileFailureDoesNotPublish(t *testing.T) {
	host := dom.NewElement("div", "")
	reg := prometheus.NewRegistry()
	col, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	e := newEditor(t, WithRootElement(host), WithMetrics(col))

	var texts []*nodes.Text
	update(t, e, func(tx *Txn) error {
		var err error
		_, texts, err = addParagraph(tx, "a", "b")
		return err
	})
	el, _ := e.Element(texts[1].Key())
	dom.Detach(el)
	prev := e.State()

	err = e.Update(context.Background(), func(tx *Txn) error { return texts[0].SetText("A") })
	if !errors.Is(err, reconcile.ErrReconciliation) {
		t.Fatalf("expected ErrReconciliation, got %v", err)
	}
	if e.State() != prev {
		t.Error("state must not be published when reconciliation fails")
	}

	expected := `
# HELP richtext_updates_total Total number of update transactions by result
# TYPE richtext_updates_total counter
richtext_updates_total{result="committed"} 1
richtext_updates_total{result="failed"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "richtext_updates_total"); err != nil {
		t.Error(err)
	}

	// Remounting recovers.
	if err := e.SetRootElement(context.Background(), dom.NewElement("div", "")); err != nil {
		t.Fatalf("SetRootElement: %v", err)
	}
	update(t, e, func(tx *Txn) error { return texts[0].SetText("A") })
	if got, want := dom.InnerHTML(e.RootElement()), `<p><span>A</span><span>b</span></p>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSetRootElementMountsLater(t *testing.T) {
	e := newEditor(t)
	update(t, e, func(tx *Txn) error {
		_, _, err := addParagraph(tx, "hi")
		return err
	})
	host := dom.NewElement("div", "")
	if err := e.SetRootElement(context.Background(), host); err != nil {
		t.Fatalf("SetRootElement: %v", err)
	}
	if got, want := dom.InnerHTML(host), `<p><span>hi</span></p>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if err := e.SetRootElement(context.Background(), nil); err != nil {
		t.Fatalf("unmount: %v", err)
	}
	update(t, e, func(tx *Txn) error {
		_, _, err := addParagraph(tx, "headless")
		return err
	})
	if got, want := dom.InnerHTML(host), `<p><span>hi</span></p>`; got != want {
		t.Errorf("unmounted host should not change, got %q", got)
	}
}

func TestSetTheme(t *testing.T) {
	host := dom.NewElement("div", "")
	e := newEditor(t, WithRootElement(host))
	var pk node.Key
	update(t, e, func(tx *Txn) error {
		p, _, err := addParagraph(tx, "x")
		pk = p.Key()
		return err
	})
	before, _ := e.Element(pk)

	if err := e.SetTheme(context.Background(), theme.Theme{"paragraph": "para"}); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if got, want := dom.InnerHTML(host), `<p class="para"><span>x</span></p>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if after, _ := e.Element(pk); after != before {
		t.Error("theme change should restyle in place")
	}
	if c, _ := e.Theme().Class("paragraph"); c != "para" {
		t.Errorf("expected theme to be stored, got %q", c)
	}
}
