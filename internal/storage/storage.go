package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
)

// FileStore persists picture binaries under their storage path.
type FileStore interface {
	Upload(ctx context.Context, path string, content []byte, mimeType string) error
	Remove(ctx context.Context, path string) error
	WebPath(path string) string
}

type Options struct {
	Bucket         string
	PublicEndpoint string
	PublicUseSSL   bool
}

type minioStore struct {
	client *minio.Client
	opts   Options
}

func NewMinIOStore(client *minio.Client, opts Options) FileStore {
	return &minioStore{client: client, opts: opts}
}

func (s *minioStore) Upload(ctx context.Context, path string, content []byte, mimeType string) error {
	_, err := s.client.PutObject(ctx, s.opts.Bucket, path, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return nil
}

func (s *minioStore) Remove(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.opts.Bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove from MinIO: %w", err)
	}
	return nil
}

func (s *minioStore) WebPath(path string) string {
	return publicURL(s.opts, path)
}

func publicURL(opts Options, path string) string {
	scheme := "http"
	if opts.PublicUseSSL {
		scheme = "https"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, opts.PublicEndpoint, opts.Bucket, strings.Join(segments, "/"))
}
