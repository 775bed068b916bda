package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/opsconsole/internal/api/middleware"
	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/gcsuploader"
	"github.com/dvloznov/opsconsole/internal/jobs"
	"github.com/dvloznov/opsconsole/internal/review"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// errBadRequest marks malformed client input.
var errBadRequest = errors.New("bad request")

const (
	defaultFilename = "statement.pdf"
	maxJSONBody     = 64 << 10
	publishTimeout  = 2 * time.Second
)

// ImportsHandler handles the per-account import session endpoints.
type ImportsHandler struct {
	manager   *review.Manager
	gateway   TransactionGateway
	catalog   CategoryCatalog
	suggester CategorySuggester
	storage   gcsuploader.StatementStorage
	publisher jobs.Publisher
	maxBytes  int64
	log       zerolog.Logger
}

// ImportsOptions carries the optional collaborators of an ImportsHandler.
// Nil fields disable the matching feature.
type ImportsOptions struct {
	Suggester CategorySuggester
	Storage   gcsuploader.StatementStorage
	Publisher jobs.Publisher
	MaxBytes  int64
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(manager *review.Manager, gateway TransactionGateway, catalog CategoryCatalog, opts ImportsOptions, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{
		manager:   manager,
		gateway:   gateway,
		catalog:   catalog,
		suggester: opts.Suggester,
		storage:   opts.Storage,
		publisher: opts.Publisher,
		maxBytes:  opts.MaxBytes,
		log:       log.With().Str("component", "imports").Logger(),
	}
}

// Submit handles POST /api/accounts/{accountID}/import
func (h *ImportsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	log := h.log.With().Str("bank_account_id", accountID).Logger()

	document, uploaded, err := h.readDocument(w, r)
	if err != nil {
		writeDomainError(w, log, err, "Failed to read statement")
		return
	}

	session := h.manager.Open(accountID)
	if err := session.Submit(r.Context(), document); err != nil {
		writeDomainError(w, log, err, "Failed to start import")
		return
	}

	if uploaded {
		h.archive(r.Context(), accountID, filenameFrom(r), document, log)
	}

	if r.URL.Query().Get("wait") == "true" {
		if err := session.Wait(r.Context()); err != nil && !errors.Is(err, review.ErrParseCancelled) {
			writeDomainError(w, log, err, "Import failed")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, session.Snapshot())
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, session.Snapshot())
}

// readDocument returns the statement bytes from the raw request body or,
// for a JSON body, from the Cloud Storage object it names. uploaded reports
// whether the bytes came from the client.
func (h *ImportsHandler) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req struct {
			GCSURI string `json:"gcs_uri"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
			return nil, false, fmt.Errorf("%w: invalid request body", errBadRequest)
		}
		if strings.TrimSpace(req.GCSURI) == "" {
			return nil, false, fmt.Errorf("%w: gcs_uri is required", errBadRequest)
		}
		if h.storage == nil {
			return nil, false, fmt.Errorf("%w: Cloud Storage is not configured", errBadRequest)
		}
		if _, _, err := gcsuploader.ParseGCSURI(req.GCSURI); err != nil {
			return nil, false, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		data, err := h.storage.Fetch(r.Context(), req.GCSURI)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentTooLarge) {
				return nil, false, err
			}
			return nil, false, fmt.Errorf("%w: %w", domain.ErrDocumentRead, err)
		}
		return data, false, nil
	}

	body := r.Body
	if h.maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, false, fmt.Errorf("%w: limit %d bytes", domain.ErrDocumentTooLarge, maxBytesErr.Limit)
		}
		return nil, false, fmt.Errorf("%w: %w", domain.ErrDocumentRead, err)
	}
	if len(data) == 0 {
		return nil, false, fmt.Errorf("%w: empty request body", domain.ErrDocumentRead)
	}
	return data, true, nil
}

// archive queues the uploaded document for storage. Failures are logged
// and never affect the import.
func (h *ImportsHandler) archive(ctx context.Context, accountID, filename string, document []byte, log zerolog.Logger) {
	if h.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	job := &jobs.ArchiveStatementJob{
		BankAccountID: accountID,
		Filename:      filename,
		Document:      document,
	}
	if err := h.publisher.PublishArchive(ctx, job); err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("Failed to queue statement archive")
		return
	}
	log.Debug().Str("job_id", job.JobID).Msg("Statement archive queued")
}

func filenameFrom(r *http.Request) string {
	name := r.Header.Get("X-Filename")
	if name == "" {
		name = r.URL.Query().Get("filename")
	}
	if strings.TrimSpace(name) == "" {
		return defaultFilename
	}
	return name
}

// Get handles GET /api/accounts/{accountID}/import
func (h *ImportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	session, ok := h.manager.Get(accountID)
	if !ok {
		middleware.WriteJSON(w, http.StatusOK, review.View{
			BankAccountID: accountID,
			State:         review.StateUpload,
			Staged:        []domain.ParsedTransaction{},
		})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, session.Snapshot())
}

// SetCategory handles PUT /api/accounts/{accountID}/import/rows/{localID}/category
func (h *ImportsHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	localID := chi.URLParam(r, "localID")
	log := h.log.With().Str("bank_account_id", accountID).Str("local_id", localID).Logger()

	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, ok := h.manager.Get(accountID)
	if !ok {
		writeDomainError(w, log, review.ErrInvalidState, "No import session")
		return
	}

	name, err := h.canonicalCategory(r.Context(), req.Category)
	if err != nil {
		writeDomainError(w, log, err, "Failed to set category")
		return
	}

	if err := session.SetCategory(localID, name); err != nil {
		writeDomainError(w, log, err, "Failed to set category")
		return
	}

	row, err := session.Row(localID)
	if err != nil {
		writeDomainError(w, log, err, "Failed to read row")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, row)
}

// canonicalCategory resolves name against the catalog, case-insensitively.
func (h *ImportsHandler) canonicalCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: category is required", domain.ErrInvalidCategory)
	}
	if strings.EqualFold(name, domain.Uncategorized) {
		return domain.Uncategorized, nil
	}

	categories, err := h.catalog.List(ctx)
	if err != nil {
		return "", fmt.Errorf("canonicalCategory: listing categories: %w", err)
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.Name, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", domain.ErrInvalidCategory, name)
}

// Remove handles DELETE /api/accounts/{accountID}/import/rows/{localID}
func (h *ImportsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	localID := chi.URLParam(r, "localID")
	log := h.log.With().Str("bank_account_id", accountID).Str("local_id", localID).Logger()

	session, ok := h.manager.Get(accountID)
	if !ok {
		writeDomainError(w, log, review.ErrInvalidState, "No import session")
		return
	}
	if err := session.Remove(localID); err != nil {
		writeDomainError(w, log, err, "Failed to remove row")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, session.Snapshot())
}

// Suggestion handles GET /api/accounts/{accountID}/import/rows/{localID}/suggestion
func (h *ImportsHandler) Suggestion(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	localID := chi.URLParam(r, "localID")
	log := h.log.With().Str("bank_account_id", accountID).Str("local_id", localID).Logger()

	if h.suggester == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Category suggestions are not enabled")
		return
	}

	session, ok := h.manager.Get(accountID)
	if !ok {
		writeDomainError(w, log, review.ErrInvalidState, "No import session")
		return
	}
	row, err := session.Row(localID)
	if err != nil {
		writeDomainError(w, log, err, "Failed to read row")
		return
	}

	categories, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, log, err, "Failed to list categories")
		return
	}

	suggestion, err := h.suggester.Suggest(r.Context(), row.Description, categories)
	if err != nil {
		log.Error().Err(err).Msg("Suggestion failed")
		middleware.WriteError(w, http.StatusBadGateway, "Suggestion failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"local_id":   localID,
		"current":    row.Category,
		"suggestion": suggestion,
	})
}

// Commit handles POST /api/accounts/{accountID}/import/commit
func (h *ImportsHandler) Commit(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	log := h.log.With().Str("bank_account_id", accountID).Logger()

	session, ok := h.manager.Get(accountID)
	if !ok {
		writeDomainError(w, log, review.ErrInvalidState, "No import session")
		return
	}

	count, err := session.Commit(r.Context(), h.gateway)
	if err != nil {
		writeDomainError(w, log, err, "Commit failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"committed": count,
		"session":   session.Snapshot(),
	})
}

// Cancel handles POST /api/accounts/{accountID}/import/cancel
func (h *ImportsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	log := h.log.With().Str("bank_account_id", accountID).Logger()

	if err := h.manager.Close(accountID); err != nil {
		writeDomainError(w, log, err, "Cancel failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, review.View{
		BankAccountID: accountID,
		State:         review.StateUpload,
		Staged:        []domain.ParsedTransaction{},
	})
}
