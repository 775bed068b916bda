package gcsuploader

import "context"

// StatementStorage fetches statements from and archives them to object storage.
type StatementStorage interface {
	// Fetch downloads the document at a gs:// URI.
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)

	// Archive stores an uploaded statement and returns its gs:// URI.
	Archive(ctx context.Context, bankAccountID, filename string, data []byte) (string, error)
}
