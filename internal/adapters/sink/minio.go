package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds object storage settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
	// PresignExpiry > 0 makes Put return a presigned URL instead of a plain one.
	PresignExpiry time.Duration
}

// MinioSink uploads files to an S3 compatible bucket.
type MinioSink struct {
	client *minio.Client
	cfg    MinioConfig

	mu         sync.Mutex
	bucketDone bool
}

// NewMinioSink creates the client. No request is made until the first Put.
func NewMinioSink(cfg MinioConfig) (*MinioSink, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket: %w", ErrNotConfigured)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioSink{client: client, cfg: cfg}, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Success is remembered.
func (s *MinioSink) EnsureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketDone {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	s.bucketDone = true
	return nil
}

// Put uploads data and returns its URL.
func (s *MinioSink) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := s.EnsureBucket(ctx); err != nil {
		return "", err
	}
	object := s.objectName(name)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	if s.cfg.PresignExpiry > 0 {
		u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, object, s.cfg.PresignExpiry, nil)
		if err != nil {
			return "", fmt.Errorf("failed to generate presigned URL: %w", err)
		}
		return u.String(), nil
	}
	return s.PublicURL(object), nil
}

func (s *MinioSink) objectName(name string) string {
	prefix := strings.Trim(s.cfg.Prefix, "/")
	if prefix == "" {
		return path.Base(name)
	}
	return prefix + "/" + path.Base(name)
}

// PublicURL returns the plain URL of object, valid when the bucket policy allows reads.
func (s *MinioSink) PublicURL(object string) string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, object)
}
