package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

// ObjectStoreConfig describes an S3-compatible bucket.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	Object    string
}

// ObjectStore uploads the collection as a single object. A PutObject either
// replaces the object completely or not at all.
type ObjectStore struct {
	client *minio.Client
	bucket string
	object string
	logger *slog.Logger
}

// NewObjectStore creates a MinIO/S3 client for the configured bucket.
func NewObjectStore(cfg ObjectStoreConfig, logger *slog.Logger) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &ObjectStore{client: client, bucket: cfg.Bucket, object: cfg.Object, logger: logger}, nil
}

func (s *ObjectStore) target() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.object)
}

// Persist uploads the collection, creating the bucket on first use.
func (s *ObjectStore) Persist(ctx context.Context, collection domain.ReducedCollection) error {
	data, err := Encode(collection)
	if err != nil {
		return &domain.PersistError{Target: s.target(), Err: err}
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &domain.PersistError{Target: s.target(), Err: fmt.Errorf("check bucket: %w", err)}
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return &domain.PersistError{Target: s.target(), Err: fmt.Errorf("create bucket: %w", err)}
		}
		s.logger.Info("created artifact bucket", "bucket", s.bucket)
	}

	info, err := s.client.PutObject(ctx, s.bucket, s.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return &domain.PersistError{Target: s.target(), Err: fmt.Errorf("upload: %w", err)}
	}
	s.logger.Debug("artifact uploaded", "target", s.target(), "size", info.Size, "etag", info.ETag)
	return nil
}
