// Package storage persists uploaded product photos.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"product-catalog/internal/model"
)

// PhotoStore saves and removes product photos.
type PhotoStore interface {
	// Save writes the upload and returns the generated file name.
	Save(ctx context.Context, photo model.PhotoUpload) (string, error)

	// Delete removes a previously saved photo. A missing file is reported as
	// model.ErrPhotoNotFound.
	Delete(ctx context.Context, filename string) error
}

// Clock returns the current time; overridden in tests.
type Clock func() time.Time

// photoFilename builds "<epoch-ms>-<original name>". Only the base name of the
// client supplied name is kept so uploads cannot escape the photo directory.
func photoFilename(now time.Time, originalName string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), baseName(originalName))
}

// baseName strips any directory part from name.
func baseName(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "photo"
	}
	return base
}
