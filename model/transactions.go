package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType determines which account references a transaction requires:
// a deposit credits a destination, a withdrawal debits a source, a transfer
// does both. Every switch over it must handle all three kinds explicitly.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionTransfer   TransactionType = "transfer"
)

const TransactionStatusCompleted = "completed"

type Transaction struct {
	ID            int             `json:"id"`
	FromAccountID *int            `json:"from_account_id,omitempty"`
	ToAccountID   *int            `json:"to_account_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"transaction_type"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`

	// Counterparty account numbers, joined in by the read side for display.
	// Never written by the ledger engine.
	FromAccountNumber *int64 `json:"from_account_number,omitempty"`
	ToAccountNumber   *int64 `json:"to_account_number,omitempty"`
}
