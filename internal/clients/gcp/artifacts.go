package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

// ArtifactStore persists full promotion-run reports to GCS so any run can
// be replayed or audited later. Upload failures are surfaced to the
// caller, which treats them as non-fatal.
type ArtifactStore interface {
	UploadReport(ctx context.Context, key string, report io.Reader) (string, error)
	DownloadReport(ctx context.Context, key string) (io.ReadCloser, error)
	ListReports(ctx context.Context, prefix string) ([]string, error)
	PublicURL(key string) string
	Close() error
}

type artifactStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewArtifactStore(log *logger.Logger) (ArtifactStore, error) {
	serviceLog := log.With("service", "ArtifactStore")

	bucket := strings.TrimSpace(os.Getenv("PROMOTION_GCS_BUCKET_NAME"))
	if bucket == "" {
		return nil, fmt.Errorf("missing env var PROMOTION_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &artifactStore{log: serviceLog, client: client, bucket: bucket}, nil
}

func (s *artifactStore) UploadReport(ctx context.Context, key string, report io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.Copy(w, report); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write artifact %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize artifact %s: %w", key, err)
	}
	s.log.Info("promotion artifact uploaded", "key", key)
	return s.PublicURL(key), nil
}

func (s *artifactStore) DownloadReport(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	return r, nil
}

func (s *artifactStore) ListReports(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list artifacts under %s: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (s *artifactStore) PublicURL(key string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, key)
}

func (s *artifactStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// NopArtifactStore is used when no bucket is configured; reports stay in
// the promotion_run row only.
type NopArtifactStore struct{}

func (NopArtifactStore) UploadReport(context.Context, string, io.Reader) (string, error) {
	return "", nil
}
func (NopArtifactStore) DownloadReport(context.Context, string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("artifact store not configured")
}
func (NopArtifactStore) ListReports(context.Context, string) ([]string, error) { return nil, nil }
func (NopArtifactStore) PublicURL(string) string                               { return "" }
func (NopArtifactStore) Close() error                                          { return nil }
