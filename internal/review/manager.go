package review

import (
	"sync"

	"github.com/rs/zerolog"
)

// Manager keeps one session per bank account.
type Manager struct {
	importer Importer
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager whose sessions use importer.
func NewManager(importer Importer, log zerolog.Logger) *Manager {
	return &Manager{
		importer: importer,
		log:      log.With().Str("component", "review").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Open returns the account's session, creating an idle one if needed.
func (m *Manager) Open(bankAccountID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[bankAccountID]; ok {
		return s
	}
	s := NewSession(bankAccountID, m.importer, m.log)
	m.sessions[bankAccountID] = s
	return s
}

// Get returns the account's session if one is open.
func (m *Manager) Get(bankAccountID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[bankAccountID]
	return s, ok
}

// Close cancels the account's session and forgets it. A session with a
// commit running is left open.
func (m *Manager) Close(bankAccountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[bankAccountID]
	if !ok {
		return nil
	}
	if err := s.Cancel(); err != nil {
		return err
	}
	delete(m.sessions, bankAccountID)
	return nil
}

// CloseAll cancels every session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if err := s.Cancel(); err != nil {
			m.log.Warn().Err(err).Str("bank_account_id", id).Msg("Session busy during shutdown")
			continue
		}
		delete(m.sessions, id)
	}
}
