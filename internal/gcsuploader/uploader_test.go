package gcsuploader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://my-bucket/path/to/file.pdf", wantBucket: "my-bucket", wantObject: "path/to/file.pdf"},
		{uri: "gs://b/f.pdf", wantBucket: "b", wantObject: "f.pdf"},
		{uri: "gs://bucket-only", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "gs:///object", wantErr: true},
		{uri: "s3://bucket/file.pdf", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
		})
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	assert.Equal(t, "file.pdf", ExtractFilenameFromGCSURI("gs://bucket/folder/file.pdf"))
	assert.Equal(t, "bucket", ExtractFilenameFromGCSURI("gs://bucket"))
}

func TestArchiveObjectName(t *testing.T) {
	at := time.Date(2026, 10, 14, 23, 30, 0, 0, time.FixedZone("PDT", -7*3600))

	tests := []struct {
		name     string
		account  string
		filename string
		want     string
	}{
		{name: "plain", account: "acct-1", filename: "october.pdf", want: "statements/acct-1/2026-10-15/id-october.pdf"},
		{name: "spaces and path", account: "acct 1", filename: "../../etc/Bank Statement (Oct).pdf", want: "statements/acct_1/2026-10-15/id-Bank_Statement_Oct_.pdf"},
		{name: "windows path", account: "a/b", filename: `C:\Users\me\stmt.pdf`, want: "statements/a_b/2026-10-15/id-stmt.pdf"},
		{name: "empty names", account: "", filename: "", want: "statements/unknown/2026-10-15/id-statement.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ArchiveObjectName(tt.account, tt.filename, at, "id"))
		})
	}
}
