// models/pending_write.go
package models

import "time"

// Pending write operations.
const (
	PendingOpUpsert    = "upsert"
	PendingOpIncrement = "increment"
	PendingOpDelete    = "delete"
)

// PendingWrite is a remote write that failed and waits in the local
// store for replay. Key deduplicates writes so a queued credit is
// replayed at most once.
type PendingWrite struct {
	ID         int64     `db:"id" json:"id"`
	Key        string    `db:"key" json:"key"`
	Collection string    `db:"collection" json:"collection"`
	DocID      string    `db:"doc_id" json:"doc_id"`
	Op         string    `db:"op" json:"op"`
	Payload    string    `db:"payload" json:"payload,omitempty"` // JSON document for upserts
	Field      string    `db:"field" json:"field,omitempty"`
	Delta      int64     `db:"delta" json:"delta,omitempty"`
	Attempts   int       `db:"attempts" json:"attempts"`
	LastError  string    `db:"last_error" json:"last_error,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
