package repository

import (
	"database/sql"
	"go-trustbank/logger"
	"go-trustbank/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IAccountRepository defines the contract for account database operations.
type IAccountRepository interface {
	CreateAccount(account *model.Account) error
	GetAccountByID(accountID int) (*model.Account, error)
	GetAccountIDByNumber(accountNumber int64) (int, error)
	GetAccountsByUserID(userID int) ([]*model.Account, error)
	GetAllAccounts() ([]*model.Account, error)
	GetLastAccountNumber() (int64, error)
	GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error)
	UpdateAccountBalance(tx *sql.Tx, accountID int, newBalance decimal.Decimal) error
}

// AccountRepository implements IAccountRepository.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// CreateAccount adds a new account to the database.
func (r *AccountRepository) CreateAccount(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        account.UserID,
		"account_number": account.AccountNumber,
		"account_type":   account.AccountType,
		"currency":       account.Currency,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (user_id, account_number, account_type, currency)
		VALUES ($1, $2, $3, $4) RETURNING id, balance, created_at, updated_at`
	err := r.DB.QueryRow(query, account.UserID, account.AccountNumber, account.AccountType, account.Currency).
		Scan(&account.ID, &account.Balance, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}

// GetAccountByID retrieves a single account by its internal identifier.
func (r *AccountRepository) GetAccountByID(accountID int) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT id, user_id, account_number, account_type, balance, currency, created_at, updated_at
		FROM accounts WHERE id = $1`
	err := r.DB.QueryRow(query, accountID).Scan(&account.ID, &account.UserID, &account.AccountNumber,
		&account.AccountType, &account.Balance, &account.Currency, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithField("account_id", accountID).WithError(err).Error("Failed to execute get account by ID query")
		}
		return nil, err
	}
	return account, nil
}

// GetAccountIDByNumber resolves an account number to the internal identifier.
// A pure lookup: ownership checks are the ledger engine's job.
func (r *AccountRepository) GetAccountIDByNumber(accountNumber int64) (int, error) {
	var accountID int
	query := `SELECT id FROM accounts WHERE account_number = $1`
	err := r.DB.QueryRow(query, accountNumber).Scan(&accountID)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithField("account_number", accountNumber).WithError(err).Error("Failed to execute get account by number query")
		}
		return 0, err
	}
	return accountID, nil
}

// GetAccountsByUserID retrieves all accounts for a specific user.
func (r *AccountRepository) GetAccountsByUserID(userID int) ([]*model.Account, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to get accounts by user ID")

	query := `SELECT id, user_id, account_number, account_type, balance, currency, created_at, updated_at
		FROM accounts WHERE user_id = $1 ORDER BY id`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for accounts by user ID")
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// GetAllAccounts retrieves all accounts from the database. For admin use only.
func (r *AccountRepository) GetAllAccounts() ([]*model.Account, error) {
	logger.Log.Info("Executing query to get all accounts")

	query := `SELECT id, user_id, account_number, account_type, balance, currency, created_at, updated_at
		FROM accounts ORDER BY id`
	rows, err := r.DB.Query(query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for all accounts")
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func scanAccounts(rows *sql.Rows) ([]*model.Account, error) {
	var accounts []*model.Account
	for rows.Next() {
		var acc model.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.AccountNumber, &acc.AccountType,
			&acc.Balance, &acc.Currency, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan account row")
			return nil, err
		}
		accounts = append(accounts, &acc)
	}
	return accounts, rows.Err()
}

// GetLastAccountNumber returns the highest assigned account number, used for
// sequential account number generation.
func (r *AccountRepository) GetLastAccountNumber() (int64, error) {
	var lastNumber int64
	query := `SELECT COALESCE(MAX(account_number), 1000000000) FROM accounts`
	if err := r.DB.QueryRow(query).Scan(&lastNumber); err != nil {
		logger.Log.WithError(err).Error("Failed to execute get last account number query")
		return 0, err
	}
	return lastNumber, nil
}

// GetAccountForUpdate reads an account under a row lock. The caller decides
// the lock acquisition order; the ledger engine always locks accounts in
// ascending id order so opposing transfers cannot deadlock.
func (r *AccountRepository) GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get account for update")

	account := &model.Account{}
	query := `SELECT id, user_id, account_number, balance, currency FROM accounts WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(query, accountID).Scan(&account.ID, &account.UserID,
		&account.AccountNumber, &account.Balance, &account.Currency)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Account not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get account for update query")
		}
		return nil, err
	}
	return account, nil
}

// UpdateAccountBalance writes a new balance inside the transaction that holds
// the row lock for the account.
func (r *AccountRepository) UpdateAccountBalance(tx *sql.Tx, accountID int, newBalance decimal.Decimal) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"new_balance": newBalance.String(),
	})
	log.Info("Executing query to update account balance")

	query := `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.Exec(query, newBalance, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return err
	}
	return nil
}
