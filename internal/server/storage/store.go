// Package storage proxies uploaded files to an S3-compatible object store,
// through either the AWS SDK or the MinIO client.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/recyclequest/internal/server/config"
)

// ObjectStore stores objects in a single bucket.
type ObjectStore interface {
	// EnsureBucket creates the bucket when it does not exist yet.
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns a public URL when a public base URL is configured and a
	// presigned GET URL otherwise.
	URL(ctx context.Context, key string) (string, error)
	// Ping reports whether the bucket is reachable.
	Ping(ctx context.Context) error
}

type Options struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	PresignExpiry time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Endpoint:      cfg.S3BaseEndpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3RootUser,
		SecretKey:     cfg.S3RootPassword,
		Bucket:        cfg.S3Bucket,
		UseSSL:        cfg.S3UseSSL,
		PublicBaseURL: cfg.PublicBaseURL,
		PresignExpiry: cfg.PresignExpiry,
	}
}

// New builds the store selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	opts := OptionsFromConfig(cfg)

	switch cfg.StorageBackend {
	case config.StorageS3:
		return NewS3Store(ctx, opts)
	case config.StorageMinio:
		return NewMinioStore(opts)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func publicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}

// splitEndpoint turns "http://host:9000/" into ("host:9000", false). A bare
// host keeps the given secure flag.
func splitEndpoint(endpoint string, secure bool) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), secure, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}
