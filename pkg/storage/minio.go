package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klokku/notebook/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

const singlePartLimit = 5 * 1024 * 1024

// MinioStorage stores objects in an S3 compatible bucket.
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicUrl string
}

func NewMinioStorage(cfg config.Storage) (*MinioStorage, error) {
	endpoint := sanitizeEndpoint(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required for the s3 driver")
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Endpoint)), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       useSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	publicUrl := cfg.PublicUrl
	if publicUrl == "" {
		scheme := "https"
		if !useSSL {
			scheme = "http"
		}
		publicUrl = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}
	return &MinioStorage{client: client, bucket: cfg.Bucket, publicUrl: publicUrl}, nil
}

func (s *MinioStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinioStorage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: len(data) < singlePartLimit,
	})
	if err != nil {
		log.Errorf("failed to upload %s: %v", path, err)
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return joinUrl(s.publicUrl, path), nil
}

func (s *MinioStorage) Download(ctx context.Context, path string) (io.ReadCloser, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get %s: %w", path, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return obj, info.ContentType, nil
}

func (s *MinioStorage) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (s *MinioStorage) PathOf(url string) (string, bool) {
	return trimBase(s.publicUrl, url)
}

// sanitizeEndpoint strips scheme and path, minio.New only accepts host[:port].
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
