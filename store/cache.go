// store/cache.go
package store

import (
	"context"
	"errors"

	"endotrack/models"
)

// ErrCacheMiss is returned by Cache.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the string-keyed local key-value store used for cached
// documents, claim flags and revoked sessions.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// SetIfAbsent stores value only when key is unset and reports whether
	// it did. The check and the write are one atomic operation.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
}

// PendingQueue holds remote writes that failed and must be replayed.
type PendingQueue interface {
	// Enqueue adds w unless a write with the same Key is already queued.
	Enqueue(ctx context.Context, w models.PendingWrite) (bool, error)
	// Pending returns queued writes oldest first.
	Pending(ctx context.Context, limit int) ([]models.PendingWrite, error)
	// PendingFor counts queued writes to one document.
	PendingFor(ctx context.Context, collection, docID string) (int, error)
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64, cause error) error
}

// Cache keys of mirrored documents.
func DayCacheKey(userID, date string) string { return "day_" + userID + "_" + date }
func ProfileCacheKey(userID string) string   { return "profile_" + userID }
func PhotosCacheKey(userID string) string    { return "photos_" + userID }
