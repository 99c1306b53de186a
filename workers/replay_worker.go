// workers/replay_worker.go
package workers

import (
	"context"
	"fmt"
	"log"

	"endotrack/store"
)

const (
	defaultReplayBatch = 50
	// A write failing this many times is dropped so it stops blocking the
	// writes queued behind it.
	defaultMaxAttempts = 20
)

// ReplayWorker pushes queued writes to the remote store in queue order.
type ReplayWorker struct {
	Queue       store.PendingQueue
	Remote      store.DocumentStore
	BatchSize   int
	MaxAttempts int
}

func NewReplayWorker(queue store.PendingQueue, remote store.DocumentStore) *ReplayWorker {
	return &ReplayWorker{
		Queue:       queue,
		Remote:      remote,
		BatchSize:   defaultReplayBatch,
		MaxAttempts: defaultMaxAttempts,
	}
}

// RunOnce replays one batch. It stops at the first failure so later
// writes to the same document never overtake an earlier one.
func (w *ReplayWorker) RunOnce(ctx context.Context) (int, error) {
	replayed, _, err := w.runBatch(ctx)
	return replayed, err
}

// runBatch returns the writes replayed and the writes removed from the
// queue, which also counts the ones given up on.
func (w *ReplayWorker) runBatch(ctx context.Context) (int, int, error) {
	writes, err := w.Queue.Pending(ctx, w.BatchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("listing pending writes: %w", err)
	}
	if len(writes) == 0 {
		return 0, 0, nil
	}
	log.Printf("📥 [REPLAY] %d pending write(s) queued", len(writes))

	replayed, removed := 0, 0
	for _, pw := range writes {
		if w.MaxAttempts > 0 && pw.Attempts >= w.MaxAttempts {
			log.Printf("❌ [REPLAY] Giving up on %s after %d attempts: %s", pw.Key, pw.Attempts, pw.LastError)
			if err := w.Queue.Complete(ctx, pw.ID); err != nil {
				return replayed, removed, err
			}
			removed++
			continue
		}

		if err := store.Replay(ctx, w.Remote, pw); err != nil {
			if failErr := w.Queue.Fail(ctx, pw.ID, err); failErr != nil {
				log.Printf("❌ [REPLAY] Could not record failure of %s: %v", pw.Key, failErr)
			}
			// Do NOT continue past a failure; retry the same write next tick.
			return replayed, removed, fmt.Errorf("replaying %s: %w", pw.Key, err)
		}
		if err := w.Queue.Complete(ctx, pw.ID); err != nil {
			return replayed, removed, err
		}
		replayed++
		removed++
	}

	log.Printf("✅ [REPLAY] Replayed %d write(s)", replayed)
	return replayed, removed, nil
}

// Drain replays until the queue is empty or a write fails.
func (w *ReplayWorker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		replayed, removed, err := w.runBatch(ctx)
		total += replayed
		if err != nil || removed == 0 {
			return total, err
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}
