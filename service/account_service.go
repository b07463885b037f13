// file: service/account_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"go-trustbank/model"
	"go-trustbank/repository"
	"time"
)

// AccountService owns account creation, listing (with a cache-aside layer)
// and account number resolution for transfers addressed by number.
type AccountService struct {
	repo  repository.IAccountRepository
	cache ICacheClient
}

func NewAccountService(repo repository.IAccountRepository, cache ICacheClient) *AccountService {
	return &AccountService{
		repo:  repo,
		cache: cache,
	}
}

// CreateNewAccount creates a new account with the next sequential account
// number, saves it, and invalidates the user's account cache.
func (s *AccountService) CreateNewAccount(userID int, accountType model.AccountType, currency string) (*model.Account, error) {
	if accountType == "" {
		accountType = model.AccountChecking
	}
	if currency == "" {
		currency = "USD"
	}

	lastAccountNumber, err := s.repo.GetLastAccountNumber()
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		UserID:        userID,
		AccountNumber: lastAccountNumber + 1,
		AccountType:   accountType,
		Currency:      currency,
	}

	if err := s.repo.CreateAccount(account); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Del(context.Background(), fmt.Sprintf("accounts:%d", userID))
	}

	return account, nil
}

// ListAccountsForUser lists accounts for a specific user, utilizing a
// cache-aside strategy.
func (s *AccountService) ListAccountsForUser(userID int) ([]*model.Account, error) {
	cacheKey := fmt.Sprintf("accounts:%d", userID)
	ctx := context.Background()

	if s.cache != nil {
		cachedAccounts, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var accounts []*model.Account
			if err := json.Unmarshal([]byte(cachedAccounts), &accounts); err == nil {
				return accounts, nil
			}
		}
	}

	accounts, err := s.repo.GetAccountsByUserID(userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(accounts); err == nil {
			s.cache.Set(ctx, cacheKey, data, 10*time.Minute)
		}
	}

	return accounts, nil
}

// GetAllAccounts retrieves all accounts. Caching is not applied here as admin
// data may need to be fresh.
func (s *AccountService) GetAllAccounts() ([]*model.Account, error) {
	return s.repo.GetAllAccounts()
}

// ResolveAccountNumber maps an account number to the internal account
// identifier the ledger engine works with. A pure lookup with no ownership
// check: crediting a third party's account by number is the point of a
// transfer.
func (s *AccountService) ResolveAccountNumber(accountNumber int64) (int, error) {
	accountID, err := s.repo.GetAccountIDByNumber(accountNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return accountID, nil
}
