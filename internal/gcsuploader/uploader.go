// Package gcsuploader moves statement documents in and out of Cloud Storage.
package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/google/uuid"
)

// ArchivePrefix is the object prefix for archived uploads.
const ArchivePrefix = "statements"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// GCSStatementStorage is the Cloud Storage implementation of StatementStorage.
// It holds one client for its lifetime.
type GCSStatementStorage struct {
	client   *storage.Client
	bucket   string
	maxBytes int64
	now      func() time.Time
	newID    func() string
}

// NewGCSStatementStorage creates a storage client. Archive writes to bucket;
// Fetch refuses objects larger than maxBytes when maxBytes is positive.
// It assumes Application Default Credentials are configured.
func NewGCSStatementStorage(ctx context.Context, bucket string, maxBytes int64) (*GCSStatementStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStatementStorage: create storage client: %w", err)
	}
	return &GCSStatementStorage{
		client:   client,
		bucket:   bucket,
		maxBytes: maxBytes,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Close closes the storage client.
func (s *GCSStatementStorage) Close() error {
	return s.client.Close()
}

// Fetch downloads the file bytes from the given GCS URI.
func (s *GCSStatementStorage) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, s.client, gcsURI, s.maxBytes)
}

// Archive uploads data under statements/<account>/<date>/<uuid>-<name>.
func (s *GCSStatementStorage) Archive(ctx context.Context, bankAccountID, filename string, data []byte) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("Archive: no bucket configured")
	}
	objectName := ArchiveObjectName(bankAccountID, filename, s.now(), s.newID())
	if err := UploadBytes(ctx, s.client, s.bucket, objectName, data); err != nil {
		return "", fmt.Errorf("Archive: %w", err)
	}
	return "gs://" + s.bucket + "/" + objectName, nil
}

// UploadBytes writes data to bucket/objectName as a PDF object.
func UploadBytes(ctx context.Context, client *storage.Client, bucketName, objectName string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/pdf"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object %s/%s: %w", bucketName, objectName, err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s/%s: %w", bucketName, objectName, err)
	}
	return nil
}

// FetchFromGCS downloads an object, reading at most maxBytes+1 bytes so an
// oversized object fails with domain.ErrDocumentTooLarge without being
// buffered in full.
func FetchFromGCS(ctx context.Context, client *storage.Client, gcsURI string, maxBytes int64) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxBytes > 0 {
		if rc.Attrs.Size > maxBytes {
			return nil, fmt.Errorf("%w: object is %d bytes, limit %d", domain.ErrDocumentTooLarge, rc.Attrs.Size, maxBytes)
		}
		r = io.LimitReader(rc, maxBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", domain.ErrDocumentTooLarge, maxBytes)
	}
	return data, nil
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object path.
func ParseGCSURI(gcsURI string) (string, string, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}

	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// ArchiveObjectName builds statements/<account>/<yyyy-mm-dd>/<id>-<name>.
// Path separators and other unsafe characters in account and file names
// are replaced.
func ArchiveObjectName(bankAccountID, filename string, at time.Time, id string) string {
	name := sanitize(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." || name == "_" {
		name = "statement.pdf"
	}
	account := sanitize(bankAccountID)
	if account == "" {
		account = "unknown"
	}
	return path.Join(ArchivePrefix, account, at.UTC().Format("2006-01-02"), id+"-"+name)
}

func sanitize(s string) string {
	return strings.Trim(unsafeNameChars.ReplaceAllString(strings.TrimSpace(s), "_"), "_")
}
