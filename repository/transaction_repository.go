package repository

import (
	"database/sql"
	"go-trustbank/logger"
	"go-trustbank/model"

	"github.com/sirupsen/logrus"
)

// ITransactionRepository defines the contract for transaction database operations.
type ITransactionRepository interface {
	CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error
	GetTransactionsByAccountID(accountID int) ([]*model.Transaction, error)
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

// CreateTransaction inserts the ledger row for a completed money movement.
// Always called inside the same transaction as the balance mutation it records.
func (r *TransactionRepository) CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_type": transaction.Type,
		"amount":           transaction.Amount.String(),
	})
	log.Info("Executing query to create a new transaction")

	var from, to sql.NullInt64
	if transaction.FromAccountID != nil {
		from = sql.NullInt64{Int64: int64(*transaction.FromAccountID), Valid: true}
	}
	if transaction.ToAccountID != nil {
		to = sql.NullInt64{Int64: int64(*transaction.ToAccountID), Valid: true}
	}

	query := `INSERT INTO transactions (from_account_id, to_account_id, amount, transaction_type, status, description)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := tx.QueryRow(query, from, to, transaction.Amount, transaction.Type,
		transaction.Status, transaction.Description).Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

// GetTransactionsByAccountID retrieves all transactions touching an account,
// newest first, with the counterparty account numbers joined in for display.
func (r *TransactionRepository) GetTransactionsByAccountID(accountID int) ([]*model.Transaction, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get transactions by account ID")

	query := `
		SELECT t.id, t.from_account_id, t.to_account_id, t.amount, t.transaction_type,
		       t.status, COALESCE(t.description, ''), t.created_at,
		       fa.account_number, ta.account_number
		FROM transactions t
		LEFT JOIN accounts fa ON fa.id = t.from_account_id
		LEFT JOIN accounts ta ON ta.id = t.to_account_id
		WHERE t.from_account_id = $1 OR t.to_account_id = $1
		ORDER BY t.created_at DESC, t.id DESC`

	rows, err := r.DB.Query(query, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by account ID")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		var from, to, fromNumber, toNumber sql.NullInt64
		if err := rows.Scan(&t.ID, &from, &to, &t.Amount, &t.Type, &t.Status,
			&t.Description, &t.CreatedAt, &fromNumber, &toNumber); err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		if from.Valid {
			id := int(from.Int64)
			t.FromAccountID = &id
		}
		if to.Valid {
			id := int(to.Int64)
			t.ToAccountID = &id
		}
		if fromNumber.Valid {
			t.FromAccountNumber = &fromNumber.Int64
		}
		if toNumber.Valid {
			t.ToAccountNumber = &toNumber.Int64
		}
		transactions = append(transactions, &t)
	}

	return transactions, rows.Err()
}
