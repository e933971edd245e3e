package minio

import (
	"context"
	"fmt"

	"memory-test-service/internal/config"
	"memory-test-service/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var MinioClient *minio.Client

// InitMinioClient connects to MinIO and makes sure the memory image bucket exists.
func InitMinioClient(cfg *config.MinIOConfig, log *logger.Logger) error {
	var err error

	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, cfg.MemoryBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MemoryBucket, err)
	}
	if !exists {
		err = MinioClient.MakeBucket(ctx, cfg.MemoryBucket, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MemoryBucket, err)
		}
		log.Info("Created bucket", "bucket", cfg.MemoryBucket)
	}

	log.Info("Initialized MinIO client", "endpoint", cfg.Endpoint)
	return nil
}
