// utils/keys.go
package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// PhotoKey builds the blob key of a photo:
// photos/{userId}/{date}-{slug}-{uuid}{ext}.
func PhotoKey(userID, date, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "photo"
	}
	return fmt.Sprintf("photos/%s/%s-%s-%s%s", userID, date, base, uuid.NewString(), ext)
}
