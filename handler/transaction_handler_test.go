// handler/transaction_handler_test.go
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"go-trustbank/repository"
	"go-trustbank/service"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// newTransactionHandlerForTest wires a real service and real repositories
// over a sqlmock connection, so the handler test exercises the whole stack
// down to the SQL without a live database.
func newTransactionHandlerForTest(t *testing.T) (*TransactionHandler, sqlmock.Sqlmock) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	transactionService := service.NewTransactionService(db, accountRepo, transactionRepo, nil)
	accountService := service.NewAccountService(accountRepo, nil)

	return NewTransactionHandler(transactionService, accountService), dbMock
}

func authenticatedRequest(method, target, body string, userID int) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("deposit succeeds with 200 and a transaction id", func(t *testing.T) {
		h, dbMock := newTransactionHandlerForTest(t)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id, user_id, account_number, balance, currency FROM accounts").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "account_number", "balance", "currency"}).
				AddRow(3, 1, 1000000003, "0.00", "USD"))
		dbMock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(55, time.Now()))
		dbMock.ExpectCommit()

		body := `{"to_account_id": 3, "amount": 25.00, "transaction_type": "deposit"}`
		req := authenticatedRequest("POST", "/api/transactions", body, 1)
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var response struct {
			Success       bool `json:"success"`
			TransactionID int  `json:"transaction_id"`
		}
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.Equal(t, 55, response.TransactionID)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("overdraft maps to 400 insufficient funds", func(t *testing.T) {
		h, dbMock := newTransactionHandlerForTest(t)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id, user_id, account_number, balance, currency FROM accounts").
			WithArgs(4).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "account_number", "balance", "currency"}).
				AddRow(4, 1, 1000000004, "40.00", "USD"))
		dbMock.ExpectRollback()

		body := `{"from_account_id": 4, "amount": 60.00, "transaction_type": "withdrawal"}`
		req := authenticatedRequest("POST", "/api/transactions", body, 1)
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "insufficient funds")
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("transfer addressed by account number runs the resolver first", func(t *testing.T) {
		h, dbMock := newTransactionHandlerForTest(t)

		// Resolver lookup happens outside the atomic unit.
		dbMock.ExpectQuery("SELECT id FROM accounts WHERE account_number").
			WithArgs(int64(1000000002)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("SELECT id, user_id, account_number, balance, currency FROM accounts").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "account_number", "balance", "currency"}).
				AddRow(1, 1, 1000000001, "100.00", "USD"))
		dbMock.ExpectQuery("SELECT id, user_id, account_number, balance, currency FROM accounts").
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "account_number", "balance", "currency"}).
				AddRow(2, 2, 1000000002, "50.00", "USD"))
		dbMock.ExpectExec("UPDATE accounts SET balance").WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec("UPDATE accounts SET balance").WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(56, time.Now()))
		dbMock.ExpectCommit()

		body := `{"from_account_id": 1, "to_account_number": 1000000002, "amount": 30.00, "transaction_type": "transfer"}`
		req := authenticatedRequest("POST", "/api/transactions", body, 1)
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown account number maps to 404", func(t *testing.T) {
		h, dbMock := newTransactionHandlerForTest(t)

		dbMock.ExpectQuery("SELECT id FROM accounts WHERE account_number").
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		body := `{"from_account_id": 1, "to_account_number": 999, "amount": 30.00, "transaction_type": "transfer"}`
		req := authenticatedRequest("POST", "/api/transactions", body, 1)
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("missing identity in context maps to 401", func(t *testing.T) {
		h, _ := newTransactionHandlerForTest(t)

		body := `{"to_account_id": 3, "amount": 25.00, "transaction_type": "deposit"}`
		req := httptest.NewRequest("POST", "/api/transactions", strings.NewReader(body))
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.CreateTransaction).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestTransactionHandler_ListTransactionsForAccount(t *testing.T) {
	t.Run("invalid account id in path", func(t *testing.T) {
		h, _ := newTransactionHandlerForTest(t)

		req := authenticatedRequest("GET", "/api/accounts/abc/transactions", "", 1)
		req.SetPathValue("accountId", "abc")
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.ListTransactionsForAccount).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("foreign account maps to 403", func(t *testing.T) {
		h, dbMock := newTransactionHandlerForTest(t)

		dbMock.ExpectQuery("SELECT id, user_id, account_number, account_type, balance, currency, created_at, updated_at").
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "account_number", "account_type", "balance", "currency", "created_at", "updated_at"}).
				AddRow(2, 99, 1000000002, "checking", "50.00", "USD", time.Now(), time.Now()))

		req := authenticatedRequest("GET", fmt.Sprintf("/api/accounts/%d/transactions", 2), "", 1)
		req.SetPathValue("accountId", "2")
		rr := httptest.NewRecorder()

		ErrorHandlingMiddleware(h.ListTransactionsForAccount).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}
