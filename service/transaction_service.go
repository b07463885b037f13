package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-trustbank/logger"
	"go-trustbank/model"
	"go-trustbank/repository"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAmount           = errors.New("transaction amount must be greater than zero")
	ErrAmountPrecision         = errors.New("transaction amount cannot have more than two decimal places")
	ErrInvalidTransactionType  = errors.New("transaction type must be deposit, withdrawal or transfer")
	ErrMissingSourceAccount    = errors.New("a source account is required for this transaction type")
	ErrMissingReceiverAccount  = errors.New("a destination account is required for this transaction type")
	ErrUnexpectedSourceAccount = errors.New("this transaction type does not take a source account")
	ErrUnexpectedReceiver      = errors.New("this transaction type does not take a destination account")
	ErrSameAccountTransfer     = errors.New("cannot transfer money to the same account")
	ErrPermissionDenied        = errors.New("you can only move money from your own account")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrCurrencyMismatch        = errors.New("currency mismatch between accounts")
	ErrSenderAccountNotFound   = errors.New("sender account not found")
	ErrReceiverAccountNotFound = errors.New("receiver account not found")
	ErrAccountNotFound         = errors.New("account not found")
)

// TransactionService is the ledger engine: the only code path that mutates
// account balances, always together with exactly one transaction row inside
// one database transaction.
type TransactionService struct {
	db              *sql.DB
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
	cache           ICacheClient
}

func NewTransactionService(db *sql.DB, accountRepo repository.IAccountRepository,
	transactionRepo repository.ITransactionRepository, cache ICacheClient) *TransactionService {
	return &TransactionService{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
	}
}

// ProcessTransactionRequest carries a validated money movement into the
// engine. Which account references must be set depends on Type.
type ProcessTransactionRequest struct {
	FromAccountID *int
	ToAccountID   *int
	Amount        decimal.Decimal
	Type          model.TransactionType
	Description   string
}

// ProcessTransaction applies a deposit, withdrawal or transfer as a single
// atomic unit: debit, credit and ledger row all commit together or not at all.
//
// Preconditions are checked in a fixed order, each with its own error:
// amount positivity and precision, transaction type, structural shape,
// source ownership, sufficient funds. The funds check runs under the same
// row lock as the debit, so two concurrent withdrawals that would jointly
// overdraw resolve with at most one success.
func (s *TransactionService) ProcessTransaction(ctx context.Context, userID int, req ProcessTransactionRequest) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":          userID,
		"transaction_type": req.Type,
		"amount":           req.Amount.String(),
	})
	log.Info("Starting transaction processing")

	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Amount.Exponent() < -2 {
		return nil, ErrAmountPrecision
	}

	switch req.Type {
	case model.TransactionDeposit:
		if req.ToAccountID == nil {
			return nil, ErrMissingReceiverAccount
		}
		if req.FromAccountID != nil {
			return nil, ErrUnexpectedSourceAccount
		}
	case model.TransactionWithdrawal:
		if req.FromAccountID == nil {
			return nil, ErrMissingSourceAccount
		}
		if req.ToAccountID != nil {
			return nil, ErrUnexpectedReceiver
		}
	case model.TransactionTransfer:
		if req.FromAccountID == nil {
			return nil, ErrMissingSourceAccount
		}
		if req.ToAccountID == nil {
			return nil, ErrMissingReceiverAccount
		}
		if *req.FromAccountID == *req.ToAccountID {
			return nil, ErrSameAccountTransfer
		}
	default:
		return nil, ErrInvalidTransactionType
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the involved accounts in ascending id order regardless of which
	// side is the source, so two opposing transfers over the same pair of
	// accounts cannot deadlock.
	lockOrder := make([]int, 0, 2)
	if req.FromAccountID != nil {
		lockOrder = append(lockOrder, *req.FromAccountID)
	}
	if req.ToAccountID != nil {
		lockOrder = append(lockOrder, *req.ToAccountID)
	}
	sort.Ints(lockOrder)

	locked := make(map[int]*model.Account, len(lockOrder))
	for _, accountID := range lockOrder {
		account, err := s.accountRepo.GetAccountForUpdate(tx, accountID)
		if err != nil {
			if err == sql.ErrNoRows {
				if req.FromAccountID != nil && accountID == *req.FromAccountID {
					return nil, ErrSenderAccountNotFound
				}
				return nil, ErrReceiverAccountNotFound
			}
			return nil, err
		}
		locked[accountID] = account
	}

	var fromAccount, toAccount *model.Account
	if req.FromAccountID != nil {
		fromAccount = locked[*req.FromAccountID]
	}
	if req.ToAccountID != nil {
		toAccount = locked[*req.ToAccountID]
	}

	// The engine never trusts a caller-supplied source account: the caller
	// must own any account it debits. Destinations take credits from anyone.
	if fromAccount != nil && fromAccount.UserID != userID {
		return nil, ErrPermissionDenied
	}
	if fromAccount != nil && toAccount != nil && fromAccount.Currency != toAccount.Currency {
		return nil, ErrCurrencyMismatch
	}
	if fromAccount != nil && fromAccount.Balance.LessThan(req.Amount) {
		return nil, ErrInsufficientFunds
	}

	if fromAccount != nil {
		if err := s.accountRepo.UpdateAccountBalance(tx, fromAccount.ID, fromAccount.Balance.Sub(req.Amount)); err != nil {
			return nil, fmt.Errorf("could not update sender balance: %w", err)
		}
	}
	if toAccount != nil {
		if err := s.accountRepo.UpdateAccountBalance(tx, toAccount.ID, toAccount.Balance.Add(req.Amount)); err != nil {
			return nil, fmt.Errorf("could not update receiver balance: %w", err)
		}
	}

	transaction := &model.Transaction{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Type:          req.Type,
		Status:        model.TransactionStatusCompleted,
		Description:   req.Description,
	}
	if err := s.transactionRepo.CreateTransaction(tx, transaction); err != nil {
		return nil, fmt.Errorf("could not create transaction record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	s.invalidateAccountCaches(ctx, fromAccount, toAccount)

	log.WithField("transaction_id", transaction.ID).Info("Transaction completed successfully")
	return transaction, nil
}

// invalidateAccountCaches drops the cached account lists of the users whose
// balances just changed. Best effort: a failed invalidation only delays
// freshness until the cache TTL expires.
func (s *TransactionService) invalidateAccountCaches(ctx context.Context, accounts ...*model.Account) {
	if s.cache == nil {
		return
	}
	seen := make(map[int]bool, len(accounts))
	for _, account := range accounts {
		if account == nil || seen[account.UserID] {
			continue
		}
		seen[account.UserID] = true
		s.cache.Del(ctx, fmt.Sprintf("accounts:%d", account.UserID))
	}
}

// ListTransactionsForAccount retrieves the transaction history for a specific
// account, newest first, after checking the caller owns it.
func (s *TransactionService) ListTransactionsForAccount(ctx context.Context, userID, accountID int) ([]*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"requesting_user_id": userID,
		"target_account_id":  accountID,
	})

	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if account.UserID != userID {
		log.Warn("Permission denied for accessing account's transaction history")
		return nil, ErrPermissionDenied
	}

	return s.transactionRepo.GetTransactionsByAccountID(accountID)
}

// ListTransactionsForOwner merges the histories of every account the caller
// owns into one list, newest first. An account whose history cannot be read
// is skipped rather than failing the whole aggregate.
func (s *TransactionService) ListTransactionsForOwner(ctx context.Context, userID int) ([]*model.Transaction, error) {
	accounts, err := s.accountRepo.GetAccountsByUserID(userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var merged []*model.Transaction
	for _, account := range accounts {
		transactions, err := s.transactionRepo.GetTransactionsByAccountID(account.ID)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{
				"user_id":    userID,
				"account_id": account.ID,
			}).WithError(err).Warn("Skipping account while aggregating transaction history")
			continue
		}
		for _, transaction := range transactions {
			// A transfer between two of the caller's own accounts shows up
			// in both histories; keep it once.
			if seen[transaction.ID] {
				continue
			}
			seen[transaction.ID] = true
			merged = append(merged, transaction)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID > merged[j].ID
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged, nil
}
