// models/document.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is a row of the Postgres-backed document store. Data holds
// the JSON body; (collection, doc_id) is unique.
type Document struct {
	ID         uint           `gorm:"primaryKey"`
	Collection string         `gorm:"type:varchar(64);not null;uniqueIndex:uidx_document_collection_id"`
	DocID      string         `gorm:"type:varchar(255);not null;uniqueIndex:uidx_document_collection_id"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}
