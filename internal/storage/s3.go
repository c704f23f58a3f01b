package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"product-catalog/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// s3API is the subset of the S3 client used by the photo store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3PhotoStore keeps photos as objects in an S3 bucket.
type s3PhotoStore struct {
	client s3API
	bucket string
	prefix string
	now    Clock
	logger zerolog.Logger
}

// NewS3PhotoStore creates a new S3-backed photo store.
func NewS3PhotoStore(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (PhotoStore, error) {
	logger = logger.With().Str("component", "s3-photo-store").Logger()

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 photo store initialised")

	return newS3PhotoStore(s3.NewFromConfig(cfg), bucket, prefix, time.Now, logger), nil
}

func newS3PhotoStore(client s3API, bucket, prefix string, now Clock, logger zerolog.Logger) *s3PhotoStore {
	return &s3PhotoStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    now,
		logger: logger,
	}
}

func (s *s3PhotoStore) key(filename string) string {
	return s.prefix + baseName(filename)
}

// Save uploads the photo under <prefix><epoch-ms>-<original name>.
func (s *s3PhotoStore) Save(ctx context.Context, photo model.PhotoUpload) (string, error) {
	filename := photoFilename(s.now(), photo.OriginalName)
	key := s.key(filename)

	// Request signing needs a seekable body
	body, ok := photo.Content.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(photo.Content)
		if err != nil {
			return "", fmt.Errorf("failed to read photo upload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Msg("photo saved to S3")

	return filename, nil
}

// Delete removes the photo object. S3 deletes are idempotent, so the object is
// looked up first to report missing photos the same way the local store does.
func (s *s3PhotoStore) Delete(ctx context.Context, filename string) error {
	key := s.key(filename)

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", model.ErrPhotoNotFound, filename)
		}
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to head object in S3")
		return fmt.Errorf("failed to look up S3 object (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to delete object from S3")
		return fmt.Errorf("failed to delete S3 object (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Msg("photo deleted from S3")

	return nil
}
