package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/opsconsole/internal/gcsuploader"
	"github.com/dvloznov/opsconsole/internal/logger"
	"github.com/rs/zerolog"
)

// NewArchiveHandler returns a JobHandler that writes archive jobs to storage.
func NewArchiveHandler(storage gcsuploader.StatementStorage, log zerolog.Logger) JobHandler {
	log = logger.Component(log, "archive")
	return func(ctx context.Context, job Job) error {
		archiveJob, ok := job.(*ArchiveStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		uri, err := storage.Archive(ctx, archiveJob.BankAccountID, archiveJob.Filename, archiveJob.Document)
		if err != nil {
			log.Warn().
				Err(err).
				Str("job_id", archiveJob.JobID).
				Str("bank_account_id", archiveJob.BankAccountID).
				Int("retry_count", archiveJob.RetryCount).
				Msg("Statement archive failed")
			return fmt.Errorf("NewArchiveHandler: archiving statement: %w", err)
		}

		archiveJob.ObjectURI = uri
		log.Info().
			Str("job_id", archiveJob.JobID).
			Str("bank_account_id", archiveJob.BankAccountID).
			Str("object_uri", uri).
			Msg("Statement archived")
		return nil
	}
}
