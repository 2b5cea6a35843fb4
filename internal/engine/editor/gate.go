package editor

import (
	"context"
	"slices"
	"sync"
)

// gate admits one holder at a time, in arrival order.
type gate struct {
	mu    sync.Mutex
	held  bool
	queue []chan struct{}
}

// acquire blocks until the caller holds the gate or ctx is done.
func (g *gate) acquire(ctx context.Context) error {
	g.mu.Lock()
	if !g.held && len(g.queue) == 0 {
		g.held = true
		g.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	g.queue = append(g.queue, ch)
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		if i := slices.Index(g.queue, ch); i >= 0 {
			g.queue = slices.Delete(g.queue, i, i+1)
			g.mu.Unlock()
			return ctx.Err()
		}
		g.mu.Unlock()
		// Granted while giving up; pass the gate on.
		g.release()
		return ctx.Err()
	}
}

// release hands the gate to the oldest waiter, or frees it.
func (g *gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) > 0 {
		ch := g.queue[0]
		g.queue = g.queue[1:]
		close(ch)
		return
	}
	g.held = false
}

// waiting returns the number of queued callers.
func (g *gate) waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}
