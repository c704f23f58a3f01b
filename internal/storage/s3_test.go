package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"product-catalog/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client records calls made by the S3 photo store.
type mockS3Client struct {
	putFunc    func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	headFunc   func(ctx context.Context, params *s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
	deleteFunc func(ctx context.Context, params *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putFunc != nil {
		return m.putFunc(ctx, params)
	}
	return nil, errors.New("not implemented")
}

func (m *mockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headFunc != nil {
		return m.headFunc(ctx, params)
	}
	return nil, errors.New("not implemented")
}

func (m *mockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, params)
	}
	return nil, errors.New("not implemented")
}

// onlyReader hides any Seek method of the wrapped reader.
type onlyReader struct {
	io.Reader
}

func TestS3PhotoStore_Save(t *testing.T) {
	tests := []struct {
		name    string
		content io.Reader
	}{
		{name: "Seekable body", content: strings.NewReader("png-bytes")},
		{name: "Streaming body is buffered", content: onlyReader{strings.NewReader("png-bytes")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockS3Client{
				putFunc: func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
					assert.Equal(t, "photos", aws.ToString(params.Bucket))
					assert.Equal(t, "uploads/1700000000123-pen.png", aws.ToString(params.Key))
					_, seekable := params.Body.(io.Seeker)
					assert.True(t, seekable)
					body, err := io.ReadAll(params.Body)
					require.NoError(t, err)
					assert.Equal(t, "png-bytes", string(body))
					return &s3.PutObjectOutput{}, nil
				},
			}
			store := newS3PhotoStore(client, "photos", "uploads/", fixedClock, zerolog.Nop())

			filename, err := store.Save(context.Background(), model.PhotoUpload{
				OriginalName: "pen.png",
				Content:      tt.content,
			})

			require.NoError(t, err)
			assert.Equal(t, "1700000000123-pen.png", filename)
		})
	}
}

func TestS3PhotoStore_SaveError(t *testing.T) {
	client := &mockS3Client{
		putFunc: func(ctx context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			return nil, errors.New("access denied")
		},
	}
	store := newS3PhotoStore(client, "photos", "uploads/", fixedClock, zerolog.Nop())

	filename, err := store.Save(context.Background(), model.PhotoUpload{OriginalName: "pen.png", Content: strings.NewReader("x")})

	require.Error(t, err)
	assert.Empty(t, filename)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3PhotoStore_Delete(t *testing.T) {
	deleted := false
	client := &mockS3Client{
		headFunc: func(ctx context.Context, params *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
			assert.Equal(t, "uploads/1-pen.png", aws.ToString(params.Key))
			return &s3.HeadObjectOutput{}, nil
		},
		deleteFunc: func(ctx context.Context, params *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
			assert.Equal(t, "photos", aws.ToString(params.Bucket))
			assert.Equal(t, "uploads/1-pen.png", aws.ToString(params.Key))
			deleted = true
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	store := newS3PhotoStore(client, "photos", "uploads/", fixedClock, zerolog.Nop())

	require.NoError(t, store.Delete(context.Background(), "1-pen.png"))
	assert.True(t, deleted)
}

func TestS3PhotoStore_DeleteErrors(t *testing.T) {
	tests := []struct {
		name       string
		headErr    error
		deleteErr  error
		isNotFound bool
		errMatch   string
	}{
		{
			name:       "Missing object",
			headErr:    &types.NotFound{},
			isNotFound: true,
			errMatch:   "1-pen.png",
		},
		{
			name:     "Head failure",
			headErr:  errors.New("throttled"),
			errMatch: "failed to look up S3 object",
		},
		{
			name:      "Delete failure",
			deleteErr: errors.New("access denied"),
			errMatch:  "failed to delete S3 object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockS3Client{
				headFunc: func(ctx context.Context, params *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
					if tt.headErr != nil {
						return nil, tt.headErr
					}
					return &s3.HeadObjectOutput{}, nil
				},
				deleteFunc: func(ctx context.Context, params *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
					if tt.deleteErr != nil {
						return nil, tt.deleteErr
					}
					return &s3.DeleteObjectOutput{}, nil
				},
			}
			store := newS3PhotoStore(client, "photos", "uploads/", fixedClock, zerolog.Nop())

			err := store.Delete(context.Background(), "1-pen.png")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMatch)
			assert.Equal(t, tt.isNotFound, errors.Is(err, model.ErrPhotoNotFound))
		})
	}
}
