// services/load_tracker.go
package services

import (
	"context"
	"sync"
)

// LoadTracker keeps one in-flight day load per user. Starting a new load
// cancels the previous one, and results of superseded loads are dropped.
type LoadTracker struct {
	mu    sync.Mutex
	next  uint64
	loads map[string]*trackedLoad
}

type trackedLoad struct {
	generation uint64
	cancel     context.CancelFunc
}

func NewLoadTracker() *LoadTracker {
	return &LoadTracker{loads: make(map[string]*trackedLoad)}
}

// Begin starts a load for userID. The returned context is cancelled when a
// newer load begins or done is called.
func (t *LoadTracker) Begin(parent context.Context, userID string) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	if cur, ok := t.loads[userID]; ok {
		cur.cancel()
	}
	t.next++
	gen := t.next
	t.loads[userID] = &trackedLoad{generation: gen, cancel: cancel}
	t.mu.Unlock()

	done := func() {
		cancel()
		t.mu.Lock()
		if cur, ok := t.loads[userID]; ok && cur.generation == gen {
			delete(t.loads, userID)
		}
		t.mu.Unlock()
	}
	return ctx, gen, done
}

// IsCurrent reports whether gen is still the newest load of userID.
func (t *LoadTracker) IsCurrent(userID string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.loads[userID]
	return ok && cur.generation == gen
}
