// Package media is the opaque upload -> URL service for case photos and
// logos, backed by S3-compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"beacon/api/internal/util"
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 10 << 20

// Store uploads media objects and hands back publicly addressable URLs.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewStore connects to the object storage endpoint and ensures the bucket
// exists. baseURL overrides the public URL prefix; when empty, URLs are
// built from the endpoint.
func NewStore(ctx context.Context, endpoint, accessKey, secretKey, bucket, baseURL string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect media storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check media bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create media bucket: %w", err)
		}
	}

	if baseURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload stores an image under the case's prefix and returns its URL.
func (s *Store) Upload(ctx context.Context, caseID, contentType string, body io.Reader, size int64) (string, error) {
	ext, ok := allowedContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	if size <= 0 || size > MaxUploadBytes {
		return "", fmt.Errorf("upload size must be between 1 byte and %d bytes", MaxUploadBytes)
	}

	objectName := fmt.Sprintf("cases/%s/%s%s", caseID, util.NewID("img"), ext)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", fmt.Errorf("upload media object: %w", err)
	}
	return s.baseURL + "/" + objectName, nil
}

// PresignedURL returns a short-lived direct link to an object, used when the
// bucket is private.
func (s *Store) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign media object: %w", err)
	}
	return url.String(), nil
}

// Ping verifies the storage endpoint is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
