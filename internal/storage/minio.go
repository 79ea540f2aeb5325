package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/adityakmrtiwari/CliNote/internal/config"
)

// AudioStore stores uploaded recordings and returns a URL clients can fetch them from.
type AudioStore interface {
	PutAudio(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// MinIOStorage is a thin wrapper around the minio client used by services.
type MinIOStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
	expiry    time.Duration
}

// NewMinIOStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg config.MinIOConfig) (*MinIOStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 || expiry > 7*24*time.Hour {
		// presigned URLs are capped at 7 days by S3
		expiry = 7 * 24 * time.Hour
	}
	s := &MinIOStorage{client: mc, bucket: cfg.Bucket, publicURL: strings.TrimRight(cfg.PublicURL, "/"), expiry: expiry}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// PutAudio uploads the object and returns its public URL, or a presigned GET URL
// when no public base URL is configured.
func (s *MinIOStorage) PutAudio(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	if s.publicURL != "" {
		return PublicObjectURL(s.publicURL, s.bucket, key), nil
	}
	return s.GetPresignedURL(ctx, key, s.expiry)
}

// GetPresignedURL returns a presigned GET URL valid for the given duration.
func (s *MinIOStorage) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, url.Values{})
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

// Ping reports whether the bucket is reachable; used by /ready.
func (s *MinIOStorage) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

// PublicObjectURL joins base, bucket and an escaped object key.
func PublicObjectURL(base, bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.Join(parts, "/")
}
