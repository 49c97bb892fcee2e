// Package storage wraps the object-storage bucket holding uploaded post
// media. Uploaded objects are public-read; the returned URLs go straight
// into post rows.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"instafacts-api/models"
)

type MediaStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// New connects to the object-storage endpoint and makes sure the media
// bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MediaStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &MediaStore{
		client:  client,
		bucket:  bucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket),
	}, nil
}

// Upload stores one media object and returns its public URL tagged as image
// or video from the declared content type.
func (m *MediaStore) Upload(ctx context.Context, name, contentType string, size int64, data io.Reader) (models.Media, error) {
	objectName := uuid.New().String() + filepath.Ext(name)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("upload %q: %w", name, err)
	}

	return models.Media{
		Kind: models.MediaKindFromContentType(contentType),
		URL:  m.baseURL + "/" + objectName,
	}, nil
}
