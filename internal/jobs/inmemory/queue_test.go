package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/opsconsole/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, store *Store) *Queue {
	t.Helper()
	q := NewQueue(10, 2, store)
	q.backoff = func(int) time.Duration { return time.Millisecond }
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ArchiveStatementJob {
	t.Helper()
	var got *jobs.ArchiveStatementJob
	require.Eventually(t, func() bool {
		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		got = job
		return job.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestQueue_ProcessesJob(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	q := newTestQueue(t, store)

	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		job.(*jobs.ArchiveStatementJob).ObjectURI = "gs://bucket/object.pdf"
		return nil
	}))

	job := &jobs.ArchiveStatementJob{BankAccountID: "acct-1", Filename: "march.pdf", Document: []byte("%PDF")}
	require.NoError(t, q.PublishArchive(ctx, job))
	require.NotEmpty(t, job.JobID)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, "gs://bucket/object.pdf", done.ObjectURI)
	assert.Equal(t, jobs.DefaultMaxRetries, done.MaxRetries)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.Document)
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	q := newTestQueue(t, store)

	var attempts int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}))

	job := &jobs.ArchiveStatementJob{BankAccountID: "acct-1"}
	require.NoError(t, q.PublishArchive(ctx, job))

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, 1, done.RetryCount)
	assert.Empty(t, done.Error)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueue_FailsAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	q := newTestQueue(t, store)

	var attempts int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("bucket unavailable")
	}))

	job := &jobs.ArchiveStatementJob{BankAccountID: "acct-1", MaxRetries: 1}
	require.NoError(t, q.PublishArchive(ctx, job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, 1, failed.RetryCount)
	assert.Equal(t, "bucket unavailable", failed.Error)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1, 1, NewStore())
	require.NoError(t, q.Close())

	err := q.PublishArchive(context.Background(), &jobs.ArchiveStatementJob{})
	assert.Error(t, err)
	assert.Error(t, q.Start(context.Background(), func(context.Context, jobs.Job) error { return nil }))
}
