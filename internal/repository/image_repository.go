package repository

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// ImageRepository stores memory photographs as objects in a single bucket.
type ImageRepository struct {
	client *minio.Client
	bucket string
}

func NewImageRepository(client *minio.Client, bucket string) *ImageRepository {
	return &ImageRepository{client: client, bucket: bucket}
}

func (r *ImageRepository) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := r.client.PutObject(ctx, r.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return persistence("failed to upload image", err)
	}
	return nil
}

func (r *ImageRepository) Remove(ctx context.Context, key string) error {
	if err := r.client.RemoveObject(ctx, r.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return persistence("failed to remove image", err)
	}
	return nil
}

func (r *ImageRepository) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := r.client.PresignedGetObject(ctx, r.bucket, key, expiry, nil)
	if err != nil {
		return "", persistence("failed to presign image url", err)
	}
	return u.String(), nil
}
