package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"staycal/internal/app/policies"
)

var ErrNotConfigured = errors.New("s3: snapshot store is not configured")

// Options configures the snapshot bucket.
type Options struct {
	Endpoint      string
	PublicBaseURL string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
}

// SnapshotStore publishes calendar documents to an S3-compatible bucket.
type SnapshotStore struct {
	bucket        string
	publicBaseURL string
	client        *minio.Client
	logger        *slog.Logger

	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewSnapshotStore(opts Options, logger *slog.Logger) (*SnapshotStore, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	client, err := minio.New(hostOf(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	base := strings.TrimSpace(opts.PublicBaseURL)
	if base == "" {
		base = endpoint
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SnapshotStore{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        client,
		logger:        logger,
	}, nil
}

// Put overwrites key, so republishing keeps the feed URL stable.
func (s *SnapshotStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "no-cache",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	location := ObjectURL(s.publicBaseURL, s.bucket, key)
	s.logger.Info("calendar snapshot stored", "bucket", s.bucket, "key", key, "url", location)
	return location, nil
}

// Ping checks that the bucket is reachable.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("s3: check bucket: %w", err)
	}
	return nil
}

func (s *SnapshotStore) ensureBucket(ctx context.Context) error {
	s.bucketInitOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		// Feeds are subscribed to by calendar apps, which cannot sign requests.
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, s.bucket)
		if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
			s.bucketInitErr = fmt.Errorf("s3: set bucket policy: %w", err)
		}
	})
	return s.bucketInitErr
}

// NoopSnapshotStore fails fast when no bucket is configured.
type NoopSnapshotStore struct{}

func (NoopSnapshotStore) Put(context.Context, string, []byte, string) (string, error) {
	return "", ErrNotConfigured
}

// ObjectURL joins the public base, bucket and key into a fetchable URL.
func ObjectURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.TrimLeft(key, "/"))
}

func hostOf(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var (
	_ policies.SnapshotStore = (*SnapshotStore)(nil)
	_ policies.SnapshotStore = NoopSnapshotStore{}
)
