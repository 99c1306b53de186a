// services/reconciler.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"endotrack/models"
	"endotrack/store"
	"endotrack/utils"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrUnavailable means the remote store failed and nothing usable was
// cached.
var ErrUnavailable = errors.New("data unavailable: remote failed and no cached copy")

// maxFallbackDays bounds the cache scan of ListDays when the remote is down.
const maxFallbackDays = 92

// Reconciler reads remote-first with a local fallback, and writes
// remote-first with a local mirror. Remote writes that fail are queued
// for replay instead of being dropped.
type Reconciler struct {
	Remote store.DocumentStore
	Cache  store.Cache
	Queue  store.PendingQueue
	Fs     afero.Fs
	Now    func() time.Time
}

func NewReconciler(remote store.DocumentStore, cache store.Cache, queue store.PendingQueue, fs afero.Fs) *Reconciler {
	return &Reconciler{Remote: remote, Cache: cache, Queue: queue, Fs: fs, Now: time.Now}
}

// LoadDay returns the user's record for date, or nil when none exists.
func (r *Reconciler) LoadDay(ctx context.Context, userID, date string) (*models.DailyRecord, error) {
	var rec models.DailyRecord
	found, err := r.load(ctx, models.CollectionDailyRecords, models.DailyRecordID(userID, date),
		store.DayCacheKey(userID, date), &rec)
	if err != nil || !found {
		return nil, err
	}
	return &rec, nil
}

// LoadProfile returns the user's profile, or nil when none exists.
func (r *Reconciler) LoadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	found, err := r.load(ctx, models.CollectionUsers, userID, store.ProfileCacheKey(userID), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// load reads a document remote-first into out. It reports false when the
// document does not exist remotely.
func (r *Reconciler) load(ctx context.Context, collection, id, cacheKey string, out interface{}) (bool, error) {
	doc, err := r.Remote.Get(ctx, collection, id)
	if err == nil {
		if err := store.Decode(doc, out); err != nil {
			return false, err
		}
		r.mirror(ctx, cacheKey, doc)
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		if err := r.Cache.Remove(ctx, cacheKey); err != nil {
			log.Printf("⚠️ [SYNC] Could not drop cached %s: %v", cacheKey, err)
		}
		return false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	log.Printf("⚠️ [SYNC] Remote read of %s/%s failed, using local cache: %v", collection, id, err)
	found, cacheErr := r.readCache(ctx, cacheKey, out)
	if cacheErr != nil {
		return false, fmt.Errorf("%w: %v (cache: %v)", ErrUnavailable, err, cacheErr)
	}
	if !found {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, nil
}

// ListDays returns the user's records between from and to inclusive,
// ordered by date.
func (r *Reconciler) ListDays(ctx context.Context, userID, from, to string) ([]models.DailyRecord, error) {
	start, err := models.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := models.ParseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", models.ErrInvalidDate, to, from)
	}

	docs, err := r.Remote.Query(ctx, models.CollectionDailyRecords, store.Query{
		Filters: []store.Filter{
			{Field: "userId", Op: store.OpEq, Value: userID},
			{Field: "date", Op: store.OpGte, Value: from},
			{Field: "date", Op: store.OpLte, Value: to},
		},
		OrderBy: "date",
	})
	if err == nil {
		records := make([]models.DailyRecord, 0, len(docs))
		for _, doc := range docs {
			var rec models.DailyRecord
			if err := store.Decode(doc, &rec); err != nil {
				return nil, err
			}
			r.mirror(ctx, store.DayCacheKey(userID, rec.Date), doc)
			records = append(records, rec)
		}
		return records, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	log.Printf("⚠️ [SYNC] Remote range query for %s failed, scanning local cache: %v", userID, err)
	var records []models.DailyRecord
	for day, n := start, 0; !day.After(end) && n < maxFallbackDays; day, n = day.AddDate(0, 0, 1), n+1 {
		var rec models.DailyRecord
		found, cacheErr := r.readCache(ctx, store.DayCacheKey(userID, day.Format(models.DateLayout)), &rec)
		if cacheErr != nil {
			return nil, fmt.Errorf("%w: %v (cache: %v)", ErrUnavailable, err, cacheErr)
		}
		if found {
			records = append(records, rec)
		}
	}
	return records, nil
}

// SaveDay writes rec as the record of its date. Tracked groups left empty
// in rec are cleared; a nil Weight keeps the stored weight.
func (r *Reconciler) SaveDay(ctx context.Context, rec *models.DailyRecord) error {
	if _, err := models.ParseDate(rec.Date); err != nil {
		return err
	}
	rec.Activity = utils.NormalizeLabels(rec.Activity)
	rec.Symptoms = utils.NormalizeLabels(rec.Symptoms)
	now := r.Now().UTC()
	rec.UpdatedAt = &now

	doc, err := store.Encode(rec)
	if err != nil {
		return err
	}
	return r.upsert(ctx, models.CollectionDailyRecords, models.DailyRecordID(rec.UserID, rec.Date),
		store.DayCacheKey(rec.UserID, rec.Date), doc)
}

// SaveWeight records the weight of date and leaves the tracked groups of
// the record alone.
func (r *Reconciler) SaveWeight(ctx context.Context, userID, date string, weight float64) error {
	if _, err := models.ParseDate(date); err != nil {
		return err
	}
	patch := store.Doc{
		"userId":    userID,
		"date":      date,
		"weight":    weight,
		"updatedAt": r.Now().UTC().Format(time.RFC3339Nano),
	}
	return r.upsert(ctx, models.CollectionDailyRecords, models.DailyRecordID(userID, date),
		store.DayCacheKey(userID, date), patch)
}

// SaveProfile merges patch into the user's profile. Fields absent from
// patch keep their stored value.
func (r *Reconciler) SaveProfile(ctx context.Context, userID string, patch store.Doc) error {
	patch = store.MergeDocs(store.Doc{"userId": userID, "updatedAt": r.Now().UTC().Format(time.RFC3339Nano)}, patch)
	return r.upsert(ctx, models.CollectionUsers, userID, store.ProfileCacheKey(userID), patch)
}

// CreditEndolots adds delta to the user's balance with a server-side
// increment. key identifies the credit so a queued replay applies it once.
// Credits skip the per-document queue ordering: profile upserts never carry
// the balance, so increments commute with them.
func (r *Reconciler) CreditEndolots(ctx context.Context, userID string, delta int64, key string) error {
	cacheKey := store.ProfileCacheKey(userID)
	remoteErr := r.Remote.Increment(ctx, models.CollectionUsers, userID, models.EndolotsField, delta)
	if remoteErr == nil {
		if doc, err := r.Remote.Get(ctx, models.CollectionUsers, userID); err == nil {
			r.mirror(ctx, cacheKey, doc)
			return nil
		}
	} else {
		log.Printf("⚠️ [SYNC] Remote credit for %s failed, queueing: %v", userID, remoteErr)
		queued, err := r.Queue.Enqueue(ctx, models.PendingWrite{
			Key:        key,
			Collection: models.CollectionUsers,
			DocID:      userID,
			Op:         models.PendingOpIncrement,
			Field:      models.EndolotsField,
			Delta:      delta,
		})
		if err != nil {
			return fmt.Errorf("crediting endolots: remote: %v, queue: %w", remoteErr, err)
		}
		if !queued {
			// Already queued under this key; the cache already reflects it.
			return nil
		}
	}

	var doc store.Doc
	found, err := r.readCache(ctx, cacheKey, &doc)
	if err != nil || !found {
		return nil
	}
	current := int64(0)
	if v, ok := store.Lookup(doc, models.EndolotsField); ok {
		if n, ok := v.(float64); ok {
			current = int64(n)
		}
	}
	r.mirror(ctx, cacheKey, store.MergeDocs(doc, store.Nested(models.EndolotsField, current+delta)))
	return nil
}

// LoadPhotos returns the user's photo metadata, oldest first. When served
// from cache, entries whose local file is gone are dropped and the pruned
// list is written back.
func (r *Reconciler) LoadPhotos(ctx context.Context, userID string) ([]models.Photo, error) {
	cacheKey := store.PhotosCacheKey(userID)
	docs, err := r.Remote.Query(ctx, models.CollectionPhotos, store.Query{
		Filters: []store.Filter{{Field: "userId", Op: store.OpEq, Value: userID}},
		OrderBy: "createdAt",
	})
	if err == nil {
		photos := make([]models.Photo, 0, len(docs))
		for _, doc := range docs {
			var p models.Photo
			if err := store.Decode(doc, &p); err != nil {
				return nil, err
			}
			photos = append(photos, p)
		}
		r.mirror(ctx, cacheKey, photos)
		return photos, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	log.Printf("⚠️ [SYNC] Remote photo query for %s failed, using local cache: %v", userID, err)
	var cached []models.Photo
	found, cacheErr := r.readCache(ctx, cacheKey, &cached)
	if cacheErr != nil {
		return nil, fmt.Errorf("%w: %v (cache: %v)", ErrUnavailable, err, cacheErr)
	}
	if !found {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	kept := make([]models.Photo, 0, len(cached))
	for _, p := range cached {
		ok, statErr := utils.Exists(r.Fs, p.LocalPath)
		if statErr != nil {
			kept = append(kept, p)
			continue
		}
		if ok {
			kept = append(kept, p)
		}
	}
	if len(kept) != len(cached) {
		log.Printf("[SYNC] Pruned %d photo(s) with missing files for %s", len(cached)-len(kept), userID)
		r.mirror(ctx, cacheKey, kept)
	}
	return kept, nil
}

// SavePhoto stores photo metadata.
func (r *Reconciler) SavePhoto(ctx context.Context, p models.Photo) error {
	doc, err := store.Encode(p)
	if err != nil {
		return err
	}
	err = r.write(ctx, models.CollectionPhotos, p.ID, func() (models.PendingWrite, error) {
		return store.NewPendingUpsert(r.writeKey("upsert", models.CollectionPhotos, p.ID), models.CollectionPhotos, p.ID, doc)
	}, func() error {
		return r.Remote.Upsert(ctx, models.CollectionPhotos, p.ID, doc)
	})
	if err != nil {
		return err
	}
	r.updateCachedPhotos(ctx, p.UserID, func(photos []models.Photo) []models.Photo {
		for i := range photos {
			if photos[i].ID == p.ID {
				photos[i] = p
				return photos
			}
		}
		return append(photos, p)
	})
	return nil
}

// DeletePhoto removes photo metadata.
func (r *Reconciler) DeletePhoto(ctx context.Context, userID, photoID string) error {
	err := r.write(ctx, models.CollectionPhotos, photoID, func() (models.PendingWrite, error) {
		return models.PendingWrite{
			Key:        r.writeKey("delete", models.CollectionPhotos, photoID),
			Collection: models.CollectionPhotos,
			DocID:      photoID,
			Op:         models.PendingOpDelete,
		}, nil
	}, func() error {
		return r.Remote.Delete(ctx, models.CollectionPhotos, photoID)
	})
	if err != nil {
		return err
	}
	r.updateCachedPhotos(ctx, userID, func(photos []models.Photo) []models.Photo {
		out := photos[:0]
		for _, p := range photos {
			if p.ID != photoID {
				out = append(out, p)
			}
		}
		return out
	})
	return nil
}

func (r *Reconciler) upsert(ctx context.Context, collection, id, cacheKey string, doc store.Doc) error {
	err := r.write(ctx, collection, id, func() (models.PendingWrite, error) {
		return store.NewPendingUpsert(r.writeKey("upsert", collection, id), collection, id, doc)
	}, func() error {
		return r.Remote.Upsert(ctx, collection, id, doc)
	})
	if err != nil {
		return err
	}

	var cached store.Doc
	if _, err := r.readCache(ctx, cacheKey, &cached); err != nil {
		log.Printf("⚠️ [SYNC] Could not read cached %s: %v", cacheKey, err)
	}
	r.mirror(ctx, cacheKey, store.MergeDocs(cached, doc))
	return nil
}

// write runs remote and queues the pending write built by pending when it
// fails. While earlier writes to the same document wait in the queue the
// new one is queued behind them, so replay keeps the last write last. It
// errors only when the write is lost, i.e. both fail.
func (r *Reconciler) write(ctx context.Context, collection, id string, pending func() (models.PendingWrite, error), remote func() error) error {
	queued, err := r.Queue.PendingFor(ctx, collection, id)
	if err != nil {
		log.Printf("⚠️ [SYNC] Could not check queued writes of %s/%s: %v", collection, id, err)
	}

	var cause error
	if queued > 0 {
		cause = fmt.Errorf("%d earlier write(s) still queued", queued)
	} else if cause = remote(); cause == nil {
		return nil
	}
	log.Printf("⚠️ [SYNC] Remote write of %s/%s deferred, queueing for replay: %v", collection, id, cause)

	w, err := pending()
	if err != nil {
		return err
	}
	if _, err := r.Queue.Enqueue(ctx, w); err != nil {
		log.Printf("❌ [SYNC] Could not queue write of %s/%s: %v", collection, id, err)
		return fmt.Errorf("writing %s/%s: %v, queue: %w", collection, id, cause, err)
	}
	return nil
}

func (r *Reconciler) writeKey(op, collection, id string) string {
	return fmt.Sprintf("%s_%s_%s_%s", op, collection, id, uuid.NewString())
}

func (r *Reconciler) updateCachedPhotos(ctx context.Context, userID string, fn func([]models.Photo) []models.Photo) {
	cacheKey := store.PhotosCacheKey(userID)
	var photos []models.Photo
	if _, err := r.readCache(ctx, cacheKey, &photos); err != nil {
		log.Printf("⚠️ [SYNC] Could not read cached %s: %v", cacheKey, err)
		return
	}
	r.mirror(ctx, cacheKey, fn(photos))
}

// mirror writes v to the cache. Failures only cost a future fallback.
func (r *Reconciler) mirror(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️ [SYNC] Could not encode %s for cache: %v", key, err)
		return
	}
	if err := r.Cache.Set(ctx, key, string(raw)); err != nil {
		log.Printf("⚠️ [SYNC] Could not cache %s: %v", key, err)
	}
}

func (r *Reconciler) readCache(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, err := r.Cache.Get(ctx, key)
	if errors.Is(err, store.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return true, nil
}
