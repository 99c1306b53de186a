package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"endotrack/store"
	"endotrack/testutil"
	"endotrack/workers"

	"github.com/spf13/afero"
)

var errRemoteDown = errors.New("remote unavailable")

// flakyRemote wraps a real document store and fails every call while down.
type flakyRemote struct {
	store.DocumentStore

	mu         sync.Mutex
	down       bool
	writesDown bool
}

func (r *flakyRemote) setDown(down bool) {
	r.mu.Lock()
	r.down = down
	r.mu.Unlock()
}

// setWritesDown fails writes only; reads keep working.
func (r *flakyRemote) setWritesDown(down bool) {
	r.mu.Lock()
	r.writesDown = down
	r.mu.Unlock()
}

func (r *flakyRemote) failWrite(ctx context.Context) error {
	r.mu.Lock()
	writesDown := r.writesDown
	r.mu.Unlock()
	if writesDown {
		return errRemoteDown
	}
	return r.fail(ctx)
}

func (r *flakyRemote) fail(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errRemoteDown
	}
	return ctx.Err()
}

func (r *flakyRemote) Get(ctx context.Context, collection, id string) (store.Doc, error) {
	if err := r.fail(ctx); err != nil {
		return nil, err
	}
	return r.DocumentStore.Get(ctx, collection, id)
}

func (r *flakyRemote) Upsert(ctx context.Context, collection, id string, doc store.Doc) error {
	if err := r.failWrite(ctx); err != nil {
		return err
	}
	return r.DocumentStore.Upsert(ctx, collection, id, doc)
}

func (r *flakyRemote) Query(ctx context.Context, collection string, q store.Query) ([]store.Doc, error) {
	if err := r.fail(ctx); err != nil {
		return nil, err
	}
	return r.DocumentStore.Query(ctx, collection, q)
}

func (r *flakyRemote) Delete(ctx context.Context, collection, id string) error {
	if err := r.failWrite(ctx); err != nil {
		return err
	}
	return r.DocumentStore.Delete(ctx, collection, id)
}

func (r *flakyRemote) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if err := r.failWrite(ctx); err != nil {
		return err
	}
	return r.DocumentStore.Increment(ctx, collection, id, field, delta)
}

type testEnv struct {
	remote *flakyRemote
	local  *store.LocalStore
	fs     afero.Fs
	data   *Reconciler
	ledger *RewardLedger
	home   *HomeService
}

var fixedNow = time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	remote := &flakyRemote{DocumentStore: testutil.NewTestDocuments(t)}
	local := testutil.NewTestStore(t)
	fs := afero.NewMemMapFs()

	data := NewReconciler(remote, local, local, fs)
	data.Now = func() time.Time { return fixedNow }
	ledger := NewRewardLedger(&store.CacheClaimStore{Cache: local})

	return &testEnv{
		remote: remote,
		local:  local,
		fs:     fs,
		data:   data,
		ledger: ledger,
		home:   NewHomeService(data, ledger),
	}
}

func (e *testEnv) pending(t *testing.T) int {
	t.Helper()
	writes, err := e.local.Pending(context.Background(), 0)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	return len(writes)
}

// drain replays every queued write against the remote.
func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	if _, err := workers.NewReplayWorker(e.local, e.remote).Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}
