package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"product-catalog/internal/model"

	"github.com/rs/zerolog"
)

// localPhotoStore keeps photos as plain files under a single directory.
type localPhotoStore struct {
	dir    string
	now    Clock
	logger zerolog.Logger
}

// NewLocalPhotoStore creates a photo store rooted at dir. The directory is
// created on first save.
func NewLocalPhotoStore(dir string, logger zerolog.Logger) PhotoStore {
	return newLocalPhotoStore(dir, time.Now, logger)
}

func newLocalPhotoStore(dir string, now Clock, logger zerolog.Logger) *localPhotoStore {
	return &localPhotoStore{
		dir:    dir,
		now:    now,
		logger: logger.With().Str("component", "local-photo-store").Logger(),
	}
}

// Save writes the upload to <dir>/<epoch-ms>-<original name>.
func (s *localPhotoStore) Save(ctx context.Context, photo model.PhotoUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("failed to create uploads directory")
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	filename := photoFilename(s.now(), photo.OriginalName)
	path := filepath.Join(s.dir, filename)

	file, err := os.Create(path)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to create photo file")
		return "", fmt.Errorf("failed to create photo file %s: %w", filename, err)
	}

	written, err := io.Copy(file, photo.Content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to write photo file")
		return "", fmt.Errorf("failed to write photo file %s: %w", filename, err)
	}

	s.logger.Info().
		Str("file", filename).
		Int64("bytes", written).
		Msg("photo saved")

	return filename, nil
}

// Delete removes <dir>/<filename>.
func (s *localPhotoStore) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, baseName(filename))

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", model.ErrPhotoNotFound, filename)
		}
		s.logger.Error().Err(err).Str("file", path).Msg("failed to delete photo file")
		return fmt.Errorf("failed to delete photo file %s: %w", filename, err)
	}

	s.logger.Info().Str("file", filename).Msg("photo deleted")

	return nil
}
