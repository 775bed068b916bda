package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorized is the category assigned when no catalog keyword matches.
const Uncategorized = "Uncategorized"

// TextFragment is one positioned run of text delivered by a document renderer.
// Y is the baseline; larger values are higher on the page.
type TextFragment struct {
	Text string
	X    float64
	Y    float64
}

// ReconstructedLine is a row of text assembled from fragments sharing a baseline.
type ReconstructedLine struct {
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// RowStatus tracks whether a staged row has been touched by the reviewer.
type RowStatus string

const (
	RowStatusPending  RowStatus = "pending"
	RowStatusReviewed RowStatus = "reviewed"
)

// ParsedTransaction is a statement line turned into a transaction candidate.
// It only lives inside a review session; LocalID is never persisted.
type ParsedTransaction struct {
	LocalID     string           `json:"local_id"`
	Date        string           `json:"date"` // partial, e.g. "10/23"
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"` // negative = debit/outflow
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	Category    string           `json:"category"`
	Status      RowStatus        `json:"status"`
}

// TransactionStatus is the lifecycle of a persisted transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusCleared    TransactionStatus = "cleared"
	TransactionStatusReconciled TransactionStatus = "reconciled"
)

// PersistedTransaction is a committed transaction. CreatedAt is assigned by the store.
type PersistedTransaction struct {
	ID            string            `json:"id"`
	BankAccountID string            `json:"bank_account_id"`
	Date          string            `json:"date"`
	Description   string            `json:"description"`
	Amount        decimal.Decimal   `json:"amount"`
	Balance       *decimal.Decimal  `json:"balance,omitempty"`
	Category      string            `json:"category"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}
