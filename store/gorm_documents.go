// store/gorm_documents.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"endotrack/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentStore keeps documents as JSONB rows in Postgres (or any
// gorm dialect with JSON support).
type GormDocumentStore struct {
	DB *gorm.DB
}

func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{DB: db}
}

func (s *GormDocumentStore) Get(ctx context.Context, collection, id string) (Doc, error) {
	var row models.Document
	err := s.DB.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return decodeRow(row)
}

func (s *GormDocumentStore) Upsert(ctx context.Context, collection, id string, doc Doc) error {
	err := s.mutate(ctx, collection, id, func(current Doc) (Doc, error) {
		return MergeDocs(current, doc), nil
	})
	if err != nil {
		return fmt.Errorf("upserting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *GormDocumentStore) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	err := s.mutate(ctx, collection, id, func(current Doc) (Doc, error) {
		return addInt(current, field, delta)
	})
	if err != nil {
		return fmt.Errorf("incrementing %s on %s/%s: %w", field, collection, id, err)
	}
	return nil
}

// mutate applies fn to the locked row inside one transaction, creating
// the row when it does not exist yet.
func (s *GormDocumentStore) mutate(ctx context.Context, collection, id string, fn func(Doc) (Doc, error)) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND doc_id = ?", collection, id).
			First(&row).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		current := Doc{}
		if exists {
			if current, err = decodeRow(row); err != nil {
				return err
			}
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}

		if !exists {
			return tx.Create(&models.Document{
				Collection: collection,
				DocID:      id,
				Data:       datatypes.JSON(raw),
			}).Error
		}
		return tx.Model(&row).Update("data", datatypes.JSON(raw)).Error
	})
}

// Query pushes string equality filters down to the database and applies
// the rest of the query in memory.
func (s *GormDocumentStore) Query(ctx context.Context, collection string, q Query) ([]Doc, error) {
	db := s.DB.WithContext(ctx).Where("collection = ?", collection)
	for _, f := range q.Filters {
		if value, ok := f.Value.(string); ok && f.Op == OpEq {
			db = db.Where(datatypes.JSONQuery("data").Equals(value, strings.Split(f.Field, ".")...))
		}
	}

	var rows []models.Document
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	docs := make([]Doc, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return ApplyQuery(docs, q)
}

func (s *GormDocumentStore) Delete(ctx context.Context, collection, id string) error {
	err := s.DB.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&models.Document{}).Error
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

func decodeRow(row models.Document) (Doc, error) {
	doc := Doc{}
	if len(row.Data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s/%s: %w", row.Collection, row.DocID, err)
	}
	return doc, nil
}
