package bigquery

import (
	"math/big"
	"time"

	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/shopspring/decimal"
)

const transactionsTable = "transactions"

// TransactionRow is a row of the transactions table.
type TransactionRow struct {
	TransactionID   string    `bigquery:"transaction_id"`   // REQUIRED
	BankAccountID   string    `bigquery:"bank_account_id"`  // REQUIRED
	TransactionDate string    `bigquery:"transaction_date"` // REQUIRED, partial "MM/DD"
	DateKey         int64     `bigquery:"date_key"`         // REQUIRED
	Description     string    `bigquery:"description"`      // REQUIRED
	Amount          *big.Rat  `bigquery:"amount"`           // REQUIRED NUMERIC
	Balance         *big.Rat  `bigquery:"balance"`          // NULLABLE NUMERIC
	CategoryName    string    `bigquery:"category_name"`    // REQUIRED
	Status          string    `bigquery:"status"`           // REQUIRED
	CreatedTS       time.Time `bigquery:"created_ts"`       // REQUIRED (set on insert)
}

// ToDomain converts the row to a persisted transaction.
func (r TransactionRow) ToDomain() domain.PersistedTransaction {
	tx := domain.PersistedTransaction{
		ID:            r.TransactionID,
		BankAccountID: r.BankAccountID,
		Date:          r.TransactionDate,
		Description:   r.Description,
		Amount:        ratToDecimal(r.Amount),
		Category:      r.CategoryName,
		Status:        domain.TransactionStatus(r.Status),
		CreatedAt:     r.CreatedTS,
	}
	if r.Balance != nil {
		b := ratToDecimal(r.Balance)
		tx.Balance = &b
	}
	return tx
}

// transactionParam is one element of the @rows ARRAY<STRUCT> parameter.
// Struct parameters cannot carry NULL NUMERIC, so HasBalance marks it.
type transactionParam struct {
	TransactionID   string   `bigquery:"transaction_id"`
	BankAccountID   string   `bigquery:"bank_account_id"`
	TransactionDate string   `bigquery:"transaction_date"`
	DateKey         int64    `bigquery:"date_key"`
	Description     string   `bigquery:"description"`
	Amount          *big.Rat `bigquery:"amount"`
	HasBalance      bool     `bigquery:"has_balance"`
	Balance         *big.Rat `bigquery:"balance"`
	CategoryName    string   `bigquery:"category_name"`
	Status          string   `bigquery:"status"`
}

func toTransactionParam(tx domain.PersistedTransaction) transactionParam {
	p := transactionParam{
		TransactionID:   tx.ID,
		BankAccountID:   tx.BankAccountID,
		TransactionDate: tx.Date,
		DateKey:         int64(domain.DateSortKey(tx.Date)),
		Description:     tx.Description,
		Amount:          tx.Amount.Rat(),
		Balance:         new(big.Rat),
		CategoryName:    tx.Category,
		Status:          string(tx.Status),
	}
	if tx.Balance != nil {
		p.HasBalance = true
		p.Balance = tx.Balance.Rat()
	}
	return p
}

// ratToDecimal converts a NUMERIC value; NUMERIC has 9 fractional digits.
func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, 9)
}
