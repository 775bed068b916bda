package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/opsconsole/internal/api/middleware"
	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/jobs"
	"github.com/dvloznov/opsconsole/internal/review"
	"github.com/rs/zerolog"
)

// StatusFor maps a domain error to an HTTP status code.
func StatusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, domain.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrDocumentRead), errors.Is(err, domain.ErrNoTransactionsFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCommitFailure):
		return http.StatusBadGateway
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrInvalidCategory):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateCategory):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCategoryNotFound), errors.Is(err, review.ErrRowNotFound),
		errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, review.ErrParseInFlight), errors.Is(err, review.ErrInvalidState),
		errors.Is(err, review.ErrCommitInProgress), errors.Is(err, review.ErrParseCancelled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError logs err and writes it with its mapped status. Internal
// errors are not echoed to the client.
func writeDomainError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, status, msg)
		return
	}
	log.Warn().Err(err).Int("status", status).Msg(msg)
	middleware.WriteError(w, status, err.Error())
}
