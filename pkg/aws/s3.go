package aws

import (
	"context"
	"fmt"
	"menuo/domain"
	"menuo/pkg/config"
	"time"

	"github.com/gofiber/storage/s3/v2"
)

// Storage is the subset of the fiber storage interface the archive needs.
type Storage interface {
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

// S3 archives uploaded menu assets in a bucket.
type S3 struct {
	bucket Storage
}

func NewS3Bucket(cfg *config.AppConfig) *S3 {
	bucket := s3.New(s3.Config{
		Endpoint: cfg.AWSEndpoint,
		Bucket:   cfg.AWSBucket,
		Region:   cfg.AWSDefaultRegion,
		Credentials: s3.Credentials{
			AccessKey:       cfg.AWSAccessKey,
			SecretAccessKey: cfg.AWSSecretKey,
		},
		MaxAttempts:    3,
		RequestTimeout: time.Second * 10,
		Reset:          false,
	})

	return NewArchive(bucket)
}

func NewArchive(bucket Storage) *S3 {
	return &S3{bucket: bucket}
}

// Archive stores the upload under key. Archived assets never expire.
func (s *S3) Archive(ctx context.Context, key string, asset *domain.Upload) error {
	if asset.Empty() {
		return fmt.Errorf("archive %s: empty asset", key)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	if err := s.bucket.Set(key, asset.Content, 0); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}

// Discard removes an archived asset.
func (s *S3) Discard(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("discard %s: %w", key, err)
	}
	if err := s.bucket.Delete(key); err != nil {
		return fmt.Errorf("discard %s: %w", key, err)
	}
	return nil
}
