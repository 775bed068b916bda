// Package review holds the per-account import session: a small state
// machine that stages parsed transactions until they are committed.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/dvloznov/opsconsole/internal/pipeline"
	"github.com/rs/zerolog"
)

// State is the phase of a review session.
type State string

const (
	StateUpload  State = "upload"
	StateParsing State = "parsing"
	StateReview  State = "review"
)

var (
	// ErrParseInFlight means a document is already being parsed.
	ErrParseInFlight = errors.New("a document is already being parsed")

	// ErrInvalidState means the operation is not allowed in the current state.
	ErrInvalidState = errors.New("operation not allowed in current session state")

	// ErrRowNotFound means no staged row has the given local id.
	ErrRowNotFound = errors.New("staged transaction not found")

	// ErrCommitInProgress means a commit is running and the staged list is frozen.
	ErrCommitInProgress = errors.New("commit in progress")

	// ErrParseCancelled is the outcome of a parse abandoned through Cancel.
	ErrParseCancelled = errors.New("parse cancelled")
)

// Importer runs extraction, parsing and classification for one document.
type Importer interface {
	Import(ctx context.Context, document []byte) (pipeline.Result, error)
}

// Committer writes a staged list atomically.
type Committer interface {
	Commit(ctx context.Context, bankAccountID string, txs []domain.ParsedTransaction) error
}

// View is a point-in-time copy of a session.
type View struct {
	BankAccountID string                     `json:"bank_account_id"`
	State         State                      `json:"state"`
	Staged        []domain.ParsedTransaction `json:"staged"`
	Diagnostics   pipeline.Diagnostics       `json:"diagnostics"`
	LastError     string                     `json:"last_error,omitempty"`
}

type parseTask struct {
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	err        error
}

// Session is the review state for one bank account. All methods are safe
// for concurrent use.
type Session struct {
	bankAccountID string
	importer      Importer
	log           zerolog.Logger

	mu          sync.Mutex
	state       State
	staged      []domain.ParsedTransaction
	diagnostics pipeline.Diagnostics
	lastErr     error
	generation  uint64
	task        *parseTask
	committing  bool
}

// NewSession creates an idle session.
func NewSession(bankAccountID string, importer Importer, log zerolog.Logger) *Session {
	return &Session{
		bankAccountID: bankAccountID,
		importer:      importer,
		log:           log.With().Str("bank_account_id", bankAccountID).Logger(),
		state:         StateUpload,
	}
}

// BankAccountID returns the account the session imports into.
func (s *Session) BankAccountID() string {
	return s.bankAccountID
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit starts parsing a document in the background. Only one parse may run
// at a time and a staged list must be committed or cancelled first. The task
// outlives ctx's cancellation but keeps its values.
func (s *Session) Submit(ctx context.Context, document []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateParsing:
		return ErrParseInFlight
	case StateReview:
		return fmt.Errorf("Submit: %w: staged transactions pending", ErrInvalidState)
	}

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.generation++
	t := &parseTask{
		generation: s.generation,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.task = t
	s.state = StateParsing
	s.lastErr = nil
	s.diagnostics = pipeline.Diagnostics{}

	s.log.Info().Int("bytes", len(document)).Msg("Parsing statement")
	go s.run(taskCtx, t, s.importer, document)
	return nil
}

func (s *Session) run(ctx context.Context, t *parseTask, importer Importer, document []byte) {
	res, err := importer.Import(ctx, document)
	if err == nil && len(res.Transactions) == 0 {
		err = domain.ErrNoTransactionsFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(t.done)
	defer t.cancel()

	if t.generation != s.generation {
		t.err = ErrParseCancelled
		s.log.Debug().Uint64("generation", t.generation).Msg("Discarding result of cancelled parse")
		return
	}

	s.diagnostics = res.Diagnostics
	if err != nil {
		t.err = err
		s.lastErr = err
		s.state = StateUpload
		s.log.Warn().Err(err).Msg("Statement parse failed")
		return
	}

	s.staged = res.Transactions
	s.state = StateReview
	s.log.Info().Int("count", len(res.Transactions)).Msg("Statement staged for review")
}

// Wait blocks until the most recently submitted parse finishes and returns
// its outcome. A cancelled parse reports ErrParseCancelled.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	t := s.task
	s.mu.Unlock()

	if t == nil {
		return nil
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return t.err
}

// SetCategory overrides a staged row's category and marks it reviewed.
func (s *Session) SetCategory(localID, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("SetCategory: %w: name is required", domain.ErrInvalidCategory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	for i := range s.staged {
		if s.staged[i].LocalID == localID {
			s.staged[i].Category = category
			s.staged[i].Status = domain.RowStatusReviewed
			return nil
		}
	}
	return ErrRowNotFound
}

// Remove drops a staged row; it will not be part of any later commit.
func (s *Session) Remove(localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	for i := range s.staged {
		if s.staged[i].LocalID == localID {
			s.staged = append(s.staged[:i:i], s.staged[i+1:]...)
			if len(s.staged) == 0 {
				s.state = StateUpload
				s.log.Info().Msg("Last staged row removed")
			}
			return nil
		}
	}
	return ErrRowNotFound
}

// Row returns a copy of one staged row.
func (s *Session) Row(localID string) (domain.ParsedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReview {
		return domain.ParsedTransaction{}, ErrInvalidState
	}
	for _, row := range s.staged {
		if row.LocalID == localID {
			return row, nil
		}
	}
	return domain.ParsedTransaction{}, ErrRowNotFound
}

func (s *Session) editableLocked() error {
	if s.committing {
		return ErrCommitInProgress
	}
	if s.state != StateReview {
		return ErrInvalidState
	}
	return nil
}

// Cancel abandons the session's current work. A running parse is cancelled
// and its result discarded; a staged list is dropped. The session returns
// to Upload.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committing {
		return ErrCommitInProgress
	}

	switch s.state {
	case StateParsing:
		s.generation++
		if s.task != nil {
			s.task.cancel()
		}
		s.log.Info().Msg("Parse cancelled")
	case StateReview:
		s.log.Info().Int("count", len(s.staged)).Msg("Staged transactions discarded")
	}

	s.state = StateUpload
	s.staged = nil
	s.diagnostics = pipeline.Diagnostics{}
	s.lastErr = nil
	return nil
}

// CommitTimeout bounds a commit once it is detached from the caller.
const CommitTimeout = 2 * time.Minute

// Commit hands the staged list to the committer and returns how many rows
// were written. The committer runs on a context detached from ctx's
// cancellation, so a caller going away cannot turn a write that lands into a
// reported failure. On success the list is consumed and the session returns
// to Upload; on failure it stays in Review untouched so the caller can retry.
func (s *Session) Commit(ctx context.Context, committer Committer) (int, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	rows := make([]domain.ParsedTransaction, len(s.staged))
	copy(rows, s.staged)
	s.committing = true
	s.mu.Unlock()

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CommitTimeout)
	defer cancel()
	err := committer.Commit(commitCtx, s.bankAccountID, rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false

	if err != nil {
		if !errors.Is(err, domain.ErrCommitFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrCommitFailure, err)
		}
		s.lastErr = err
		s.log.Error().Err(err).Int("count", len(rows)).Msg("Commit failed, staged transactions kept")
		return 0, err
	}

	s.staged = nil
	s.state = StateUpload
	s.diagnostics = pipeline.Diagnostics{}
	s.lastErr = nil
	s.log.Info().Int("count", len(rows)).Msg("Staged transactions committed")
	return len(rows), nil
}

// Snapshot returns a copy of the session for display.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		BankAccountID: s.bankAccountID,
		State:         s.state,
		Staged:        make([]domain.ParsedTransaction, len(s.staged)),
		Diagnostics:   s.diagnostics,
	}
	copy(v.Staged, s.staged)
	if s.lastErr != nil {
		v.LastError = s.lastErr.Error()
	}
	return v
}
