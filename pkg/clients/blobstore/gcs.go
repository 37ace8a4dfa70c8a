package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// StorageError reports a failed upload. Submissions abort before any ledger write.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store accepts a binary image and a path and returns a publicly resolvable URL.
type Store interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// GCSStore uploads receipt photos to a Google Cloud Storage bucket.
type GCSStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// NewGCSStore creates a storage client. Without a credentials file Application Default
// Credentials are used.
func NewGCSStore(ctx context.Context, bucket, credentialsPath, publicBaseURL string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// Upload writes data to objectPath and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", &StorageError{Path: objectPath, Err: fmt.Errorf("copy to GCS writer: %w", err)}
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", &StorageError{Path: objectPath, Err: fmt.Errorf("finalize upload: %w", err)}
	}

	return PublicURL(s.publicBaseURL, s.bucket, objectPath), nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// PublicURL builds the URL an uploaded object is served from.
func PublicURL(baseURL, bucket, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(baseURL, "/"), bucket, strings.Join(segments, "/"))
}

// ObjectPath names a receipt photo: remitos/<driver>/<yyyy-mm>/<uuid>.jpg.
func ObjectPath(driverID string, at time.Time) string {
	driver := strings.TrimSpace(driverID)
	if driver == "" {
		driver = "anonymous"
	}
	return path.Join("remitos", url.PathEscape(driver), at.Format("2006-01"), uuid.NewString()+".jpg")
}
