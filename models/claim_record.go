// models/claim_record.go
package models

import (
	"fmt"
	"time"
)

// ClaimRecord marks the one-time reward of a task as granted for a day.
// Rows are append-only: created on first claim, never updated or deleted.
type ClaimRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;uniqueIndex:uidx_claim_user_date_task" json:"user_id"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:uidx_claim_user_date_task" json:"date"`
	TaskID    string    `gorm:"type:varchar(32);not null;uniqueIndex:uidx_claim_user_date_task" json:"task_id"`
	ClaimedAt time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}

// ClaimKey is the cache key of a claim: claim_{userId}_{date}_{taskId}.
func ClaimKey(userID, date, taskID string) string {
	return fmt.Sprintf("claim_%s_%s_%s", userID, date, taskID)
}
