// services/reward_ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"endotrack/models"
	"endotrack/store"
)

// ErrClaimNotPersisted means the claim record could not be written, so no
// reward was granted. The caller may retry.
var ErrClaimNotPersisted = errors.New("claim could not be recorded, try again")

// GrantFunc credits the reward of a freshly recorded claim.
type GrantFunc func(ctx context.Context) error

// RewardLedger grants each (user, date, task) reward at most once.
type RewardLedger struct {
	Claims store.ClaimStore

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewRewardLedger(claims store.ClaimStore) *RewardLedger {
	return &RewardLedger{Claims: claims, locks: make(map[string]*keyLock)}
}

// CanClaim reports whether no claim exists yet for the key.
func (l *RewardLedger) CanClaim(ctx context.Context, userID, date, taskID string) (bool, error) {
	exists, err := l.Claims.Exists(ctx, userID, date, taskID)
	if err != nil {
		return false, fmt.Errorf("checking claim: %w", err)
	}
	return !exists, nil
}

// Claim records the claim and then calls onGrant exactly once. A claim
// that already exists is a no-op returning false. When the record cannot
// be written onGrant is not called and ErrClaimNotPersisted is returned.
// A failing onGrant leaves the claim recorded; its error is returned with
// granted=true so the caller knows not to retry the claim.
func (l *RewardLedger) Claim(ctx context.Context, userID, date, taskID string, onGrant GrantFunc) (bool, error) {
	key := models.ClaimKey(userID, date, taskID)
	unlock := l.lock(key)
	defer unlock()

	exists, err := l.Claims.Exists(ctx, userID, date, taskID)
	if err != nil {
		log.Printf("❌ [LEDGER] Check failed for %s: %v", key, err)
		return false, fmt.Errorf("%w: %v", ErrClaimNotPersisted, err)
	}
	if exists {
		log.Printf("[LEDGER] %s already claimed, ignoring", key)
		return false, nil
	}

	inserted, err := l.Claims.Insert(ctx, userID, date, taskID)
	if err != nil {
		log.Printf("❌ [LEDGER] Could not record %s: %v", key, err)
		return false, fmt.Errorf("%w: %v", ErrClaimNotPersisted, err)
	}
	if !inserted {
		// Another node won the insert between our check and write.
		log.Printf("[LEDGER] %s claimed concurrently, ignoring", key)
		return false, nil
	}

	if onGrant != nil {
		if err := onGrant(ctx); err != nil {
			log.Printf("❌ [LEDGER] Grant failed for recorded claim %s: %v", key, err)
			return true, fmt.Errorf("granting reward for %s: %w", key, err)
		}
	}
	log.Printf("✅ [LEDGER] Granted %s", key)
	return true, nil
}

// lock serializes check and write for one key within this process.
func (l *RewardLedger) lock(key string) func() {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
