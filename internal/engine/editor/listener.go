package editor

import (
	"github.com/google/uuid"

	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/reconcile"
	"github.com/dshills/richtext/internal/engine/state"
)

// UpdateEvent describes one published state.
type UpdateEvent struct {
	EditorID uuid.UUID
	Prev     *state.EditorState
	Next     *state.EditorState

	// Dirty holds the changed keys and their ancestors.
	Dirty map[node.Key]struct{}

	// Patch is empty when no tree is mounted.
	Patch reconcile.Patch
}

// Listener is called after a state is published.
type Listener func(UpdateEvent)

type listenerEntry struct {
	id uint64
	fn Listener
}

// RegisterUpdateListener adds fn and returns a function removing it.
// Listeners run in registration order, after the gate is released, so
// they may start updates of their own.
func (e *Editor) RegisterUpdateListener(fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextListener++
	id := e.nextListener
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

func (e *Editor) notify(ev UpdateEvent) {
	e.mu.RLock()
	ls := make([]listenerEntry, len(e.listeners))
	copy(ls, e.listeners)
	e.mu.RUnlock()
	for _, l := range ls {
		l.fn(ev)
	}
}
