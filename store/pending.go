// store/pending.go
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"endotrack/models"
)

// NewPendingUpsert wraps a failed upsert for the queue.
func NewPendingUpsert(key, collection, docID string, doc Doc) (models.PendingWrite, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return models.PendingWrite{}, fmt.Errorf("encoding pending upsert %s: %w", key, err)
	}
	return models.PendingWrite{
		Key:        key,
		Collection: collection,
		DocID:      docID,
		Op:         models.PendingOpUpsert,
		Payload:    string(raw),
	}, nil
}

// Replay applies a queued write to the remote store.
func Replay(ctx context.Context, remote DocumentStore, w models.PendingWrite) error {
	switch w.Op {
	case models.PendingOpUpsert:
		doc := Doc{}
		if err := json.Unmarshal([]byte(w.Payload), &doc); err != nil {
			return fmt.Errorf("decoding pending upsert %s: %w", w.Key, err)
		}
		return remote.Upsert(ctx, w.Collection, w.DocID, doc)
	case models.PendingOpIncrement:
		return remote.Increment(ctx, w.Collection, w.DocID, w.Field, w.Delta)
	case models.PendingOpDelete:
		return remote.Delete(ctx, w.Collection, w.DocID)
	}
	return fmt.Errorf("unknown pending op %q", w.Op)
}
