package storage

import (
	"bytes"
	"context"
	"fmt"

	"mahalla-taskboard/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Client = fx.Module("minio.client", fx.Provide(registerClient, NewObjectStore))

func registerClient(c *config.Config) *minio.Client {
	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		zap.L().Fatal("failed to create MinIO client", zap.Error(err))
	}
	exists, errBucketExists := client.BucketExists(context.Background(), c.Minio.BucketName)
	if errBucketExists != nil {
		zap.L().Fatal("failed to check if bucket exists", zap.String("bucket", c.Minio.BucketName), zap.Error(errBucketExists))
	}
	zap.L().Info("MinIO client initialized", zap.String("endpoint", c.Minio.Endpoint), zap.Bool("bucketExists", exists))
	return client
}

// ObjectStore persists submission attachments under a fixed bucket.
type ObjectStore interface {
	PutSubmissionFile(ctx context.Context, submissionID, fileName, contentType string, data []byte) (string, error)
}

type minioStore struct {
	client *minio.Client
	bucket string
}

func NewObjectStore(client *minio.Client, cfg *config.Config) ObjectStore {
	return &minioStore{client: client, bucket: cfg.Minio.BucketName}
}

func (s *minioStore) PutSubmissionFile(ctx context.Context, submissionID, fileName, contentType string, data []byte) (string, error) {
	objectName := fmt.Sprintf("submissions/%s/%s", submissionID, fileName)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put submission file: %w", err)
	}

	return objectName, nil
}
