// Package archive keeps raw uploads in object storage so an import can be
// inspected or replayed later.
package archive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// objectWriter opens a writer for one object. Close finalizes the upload
// unless ctx was cancelled first, which abandons it.
type objectWriter func(ctx context.Context, key string) io.WriteCloser

// GCSArchiver implements usecase.Archiver on a Google Cloud Storage bucket.
type GCSArchiver struct {
	bucket  string
	prefix  string
	timeout time.Duration
	open    objectWriter
	close   func() error
}

// NewGCSArchiver creates a storage client with Application Default
// Credentials and archives into bucket.
func NewGCSArchiver(ctx context.Context, bucket string) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is empty")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	bkt := client.Bucket(bucket)
	return &GCSArchiver{
		bucket:  bucket,
		prefix:  "imports/",
		timeout: 2 * time.Minute,
		open: func(ctx context.Context, key string) io.WriteCloser {
			w := bkt.Object(key).NewWriter(ctx)
			w.ContentType = "text/csv"
			return w
		},
		close: client.Close,
	}, nil
}

// Archive uploads r under key and returns its gs:// URI.
func (a *GCSArchiver) Archive(ctx context.Context, key string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	object := a.prefix + strings.TrimPrefix(key, "/")
	w := a.open(ctx, object)

	if _, err := io.Copy(w, r); err != nil {
		// Cancel before Close so no partial object is committed.
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("copy upload to %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", object, err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, object), nil
}

// Close releases the storage client.
func (a *GCSArchiver) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
