// Package storage persists raw audio before any AI call is made.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	ProviderLocal = "local"
	ProviderGCS   = "gcs"
)

// AudioStore writes an audio blob and returns where it can be played from.
type AudioStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// RecordingName builds a collision-resistant file name from the submission
// time plus a random suffix.
func RecordingName(at time.Time, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" || len(ext) > 5 {
		ext = ".wav"
	}
	return fmt.Sprintf("recording_%d_%s%s", at.UnixMilli(), uuid.New().String()[:8], ext)
}

// Local keeps recordings on disk, served by the API under URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
}

func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings dir: %w", err)
	}
	return &Local{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (l *Local) Save(_ context.Context, name string, data []byte, _ string) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid recording name %q", name)
	}
	if err := os.WriteFile(filepath.Join(l.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}
	return path.Join(l.URLPrefix, name), nil
}

// GCS uploads recordings to a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS prefers application default credentials; credJSON overrides them.
func NewGCS(ctx context.Context, bucket, credJSON string) (*GCS, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "audio/wav"
	}
	wc := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to upload recording to Google Cloud Storage: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize recording upload: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, name), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
