// services/photo_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"endotrack/models"
	"endotrack/utils"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrUnsupportedPhoto = errors.New("unsupported photo type")
	ErrPhotoNotFound    = errors.New("photo not found")
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// PhotoService keeps a local copy of each photo and a public copy in the
// blob store.
type PhotoService struct {
	Data  *Reconciler
	Blobs utils.BlobStore
	Fs    afero.Fs
	Dir   string
	Now   func() time.Time
}

func NewPhotoService(data *Reconciler, blobs utils.BlobStore, fs afero.Fs, dir string) *PhotoService {
	return &PhotoService{Data: data, Blobs: blobs, Fs: fs, Dir: dir, Now: time.Now}
}

// Upload stores a photo for date. A failed blob upload keeps the local
// copy and leaves URL empty.
func (s *PhotoService) Upload(ctx context.Context, userID, date, filename, contentType string, data []byte) (*models.Photo, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, err
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	ext, ok := photoExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPhoto, contentType)
	}

	photo := models.Photo{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      date,
		CreatedAt: s.Now().UTC(),
	}
	photo.LocalPath = filepath.Join(s.Dir, userID, photo.ID+ext)
	if err := utils.WriteFile(s.Fs, photo.LocalPath, data); err != nil {
		return nil, fmt.Errorf("saving photo locally: %w", err)
	}

	if s.Blobs != nil {
		key := utils.PhotoKey(userID, date, filename)
		url, err := s.Blobs.Upload(ctx, key, data, contentType)
		if err != nil {
			log.Printf("⚠️ [PHOTO] Blob upload failed for %s, keeping local copy: %v", photo.ID, err)
		} else {
			photo.URL = url
			photo.BlobKey = key
		}
	}

	if err := s.Data.SavePhoto(ctx, photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

func (s *PhotoService) List(ctx context.Context, userID string) ([]models.Photo, error) {
	return s.Data.LoadPhotos(ctx, userID)
}

// Delete removes the blob, the local file and the metadata of a photo. A
// failed blob delete keeps everything in place and returns ErrUnavailable.
func (s *PhotoService) Delete(ctx context.Context, userID, photoID string) error {
	photos, err := s.Data.LoadPhotos(ctx, userID)
	if err != nil {
		return err
	}
	var target *models.Photo
	for i := range photos {
		if photos[i].ID == photoID {
			target = &photos[i]
			break
		}
	}
	if target == nil {
		return ErrPhotoNotFound
	}

	// The metadata is the only reference to the blob, so it stays until
	// the blob is gone.
	if target.BlobKey != "" && s.Blobs != nil {
		if err := s.Blobs.Delete(ctx, target.BlobKey); err != nil {
			log.Printf("❌ [PHOTO] Could not delete blob %s: %v", target.BlobKey, err)
			return fmt.Errorf("%w: deleting blob %s: %v", ErrUnavailable, target.BlobKey, err)
		}
	}
	if err := utils.Remove(s.Fs, target.LocalPath); err != nil {
		log.Printf("⚠️ [PHOTO] Could not delete local file %s: %v", target.LocalPath, err)
	}
	return s.Data.DeletePhoto(ctx, userID, photoID)
}
