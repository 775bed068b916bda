package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "STORE_BACKEND", "BOLT_PATH", "GCP_PROJECT_ID",
		"BIGQUERY_DATASET", "GCS_BUCKET", "MAX_DOCUMENT_BYTES", "GEMINI_ENABLED", "GEMINI_MODEL",
		"CORS_ALLOWED_ORIGIN",
	} {
		// Setenv registers the restore; Unsetenv lets godotenv populate the key.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendBolt, cfg.StoreBackend)
	assert.Equal(t, "finance", cfg.BigQuery.Dataset)
	assert.Equal(t, DefaultMaxDocumentBytes, cfg.MaxDocumentBytes)
	assert.False(t, cfg.Gemini.Enabled)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "STORE_BACKEND=BigQuery\nGCP_PROJECT_ID=proj-1\nMAX_DOCUMENT_BYTES=2048\nGEMINI_ENABLED=true\nCORS_ALLOWED_ORIGIN=https://ui.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendBigQuery, cfg.StoreBackend)
	assert.Equal(t, "proj-1", cfg.BigQuery.ProjectID)
	assert.Equal(t, int64(2048), cfg.MaxDocumentBytes)
	assert.True(t, cfg.Gemini.Enabled)
	assert.Equal(t, "https://ui.example", cfg.CORSOrigin)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_InvalidNumber(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("MAX_DOCUMENT_BYTES", "ten")

	_, err := Load()
	assert.ErrorContains(t, err, "MAX_DOCUMENT_BYTES")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"bigquery without project", Config{StoreBackend: BackendBigQuery, BigQuery: BigQueryConfig{Dataset: "finance"}, MaxDocumentBytes: 1}, "GCP_PROJECT_ID"},
		{"bolt without path", Config{StoreBackend: BackendBolt, MaxDocumentBytes: 1}, "BOLT_PATH"},
		{"unknown backend", Config{StoreBackend: "mongo", MaxDocumentBytes: 1}, "unknown STORE_BACKEND"},
		{"zero size limit", Config{StoreBackend: BackendBolt, BoltPath: "x.db"}, "MAX_DOCUMENT_BYTES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.cfg.Validate(), tt.wantErr)
		})
	}
}
