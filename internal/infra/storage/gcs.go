package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	// BaseURL overrides the public URL prefix, e.g. for a CDN in front of
	// the bucket.
	BaseURL string
	// PublicRead grants allUsers read access per object. Leave it off for
	// buckets with uniform bucket-level access.
	PublicRead bool
}

// GCSStore uploads blobs to a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	cfg    GCSConfig
	logger *slog.Logger
}

func NewGCSStore(ctx context.Context, cfg GCSConfig, logger *slog.Logger) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs store: bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs store: creating client: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = gcsBaseURL(cfg.Bucket)
	}

	return &GCSStore{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (s *GCSStore) Store(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = contentTypeFor(name)
	}

	obj := s.bucket.Object(name)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	n, err := io.Copy(w, body)
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs store: uploading %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs store: finalizing %s: %w", name, err)
	}

	if s.cfg.PublicRead {
		if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
			return "", fmt.Errorf("gcs store: making %s public: %w", name, err)
		}
	}

	s.logger.Debug("blob stored", "backend", "gcs", "bucket", s.cfg.Bucket, "name", name, "bytes", n)
	return publicURL(s.cfg.BaseURL, name), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func gcsBaseURL(bucket string) string {
	return gcsPublicHost + "/" + bucket
}
