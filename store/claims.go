// store/claims.go
package store

import (
	"context"
	"errors"
	"fmt"

	"endotrack/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimStore persists ClaimRecords. Insert is an atomic insert-if-absent
// and reports false when the claim already existed.
type ClaimStore interface {
	Exists(ctx context.Context, userID, date, taskID string) (bool, error)
	Insert(ctx context.Context, userID, date, taskID string) (bool, error)
}

// CacheClaimStore keeps claims as claim_{userId}_{date}_{taskId} = "1".
type CacheClaimStore struct {
	Cache Cache
}

func (s *CacheClaimStore) Exists(ctx context.Context, userID, date, taskID string) (bool, error) {
	_, err := s.Cache.Get(ctx, models.ClaimKey(userID, date, taskID))
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheClaimStore) Insert(ctx context.Context, userID, date, taskID string) (bool, error) {
	return s.Cache.SetIfAbsent(ctx, models.ClaimKey(userID, date, taskID), "1")
}

// GormClaimStore keeps claims in the claim_records table, relying on its
// unique (user, date, task) index.
type GormClaimStore struct {
	DB *gorm.DB
}

func (s *GormClaimStore) Exists(ctx context.Context, userID, date, taskID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.ClaimRecord{}).
		Where("user_id = ? AND date = ? AND task_id = ?", userID, date, taskID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking claim %s: %w", models.ClaimKey(userID, date, taskID), err)
	}
	return count > 0, nil
}

func (s *GormClaimStore) Insert(ctx context.Context, userID, date, taskID string) (bool, error) {
	rec := models.ClaimRecord{UserID: userID, Date: date, TaskID: taskID}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("inserting claim %s: %w", models.ClaimKey(userID, date, taskID), res.Error)
	}
	return res.RowsAffected == 1, nil
}
