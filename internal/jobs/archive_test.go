package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStorage struct {
	FetchFunc   func(ctx context.Context, uri string) ([]byte, error)
	ArchiveFunc func(ctx context.Context, bankAccountID, filename string, data []byte) (string, error)
}

func (m *mockStorage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return m.FetchFunc(ctx, uri)
}

func (m *mockStorage) Archive(ctx context.Context, bankAccountID, filename string, data []byte) (string, error) {
	return m.ArchiveFunc(ctx, bankAccountID, filename, data)
}

func TestArchiveHandler(t *testing.T) {
	var gotAccount, gotName string
	storage := &mockStorage{
		ArchiveFunc: func(ctx context.Context, bankAccountID, filename string, data []byte) (string, error) {
			gotAccount, gotName = bankAccountID, filename
			return "gs://bucket/statements/acct-1/x.pdf", nil
		},
	}
	handler := NewArchiveHandler(storage, zerolog.Nop())

	job := &ArchiveStatementJob{JobID: "j1", BankAccountID: "acct-1", Filename: "x.pdf", Document: []byte("%PDF")}
	require.NoError(t, handler(context.Background(), job))
	assert.Equal(t, "acct-1", gotAccount)
	assert.Equal(t, "x.pdf", gotName)
	assert.Equal(t, "gs://bucket/statements/acct-1/x.pdf", job.ObjectURI)
}

func TestArchiveHandler_Error(t *testing.T) {
	storage := &mockStorage{
		ArchiveFunc: func(ctx context.Context, bankAccountID, filename string, data []byte) (string, error) {
			return "", errors.New("permission denied")
		},
	}
	handler := NewArchiveHandler(storage, zerolog.Nop())

	err := handler(context.Background(), &ArchiveStatementJob{JobID: "j1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

type otherJob struct{}

func (otherJob) GetID() string        { return "x" }
func (otherJob) GetType() JobType     { return "other" }
func (otherJob) GetStatus() JobStatus { return JobStatusPending }

func TestArchiveHandler_RejectsOtherJobs(t *testing.T) {
	handler := NewArchiveHandler(&mockStorage{}, zerolog.Nop())
	assert.Error(t, handler(context.Background(), otherJob{}))
}
