// models/photo.go
package models

import "time"

// Photo is the metadata of a picture the user attached to a day.
// LocalPath points at the node-local copy, URL at the blob store copy.
type Photo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	LocalPath string    `json:"localPath"`
	URL       string    `json:"url,omitempty"`
	BlobKey   string    `json:"blobKey,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
