// file: router/router_test.go

package router_test

import (
	"go-trustbank/config"
	"go-trustbank/handler"
	"go-trustbank/logger"
	"go-trustbank/model"
	"go-trustbank/repository"
	"go-trustbank/router"
	"go-trustbank/service"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	config.AppConfig.JWT.SecretKey = "router-test-secret"
	os.Exit(m.Run())
}

// newTestRouter wires the full handler stack over a sqlmock connection so the
// routing and middleware chain can be exercised without live infrastructure.
func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	otpRepo := repository.NewOTPRepository(db)

	authService := service.NewAuthService(userRepo, tokenRepo)
	userService := service.NewUserService(userRepo)
	accountService := service.NewAccountService(accountRepo, nil)
	transactionService := service.NewTransactionService(db, accountRepo, transactionRepo, nil)
	otpService := service.NewOTPService(db, otpRepo, userRepo, nil, service.NewLogSMSSender(),
		5*time.Minute, time.Minute)

	userHandler := handler.NewUserHandler(userRepo, authService, userService)
	accountHandler := handler.NewAccountHandler(accountService)
	transactionHandler := handler.NewTransactionHandler(transactionService, accountService)
	otpHandler := handler.NewOTPHandler(otpService)

	return router.NewRouter(userHandler, accountHandler, transactionHandler, otpHandler), dbMock
}

func tokenForTest(t *testing.T, userID int, role model.Role) string {
	claims := &model.AppClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.AppConfig.JWT.SecretKey))
	assert.NoError(t, err)
	return signed
}

func TestRouter_PublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"API is healthy and running"}`, rr.Body.String())
}

func TestRouter_AuthMiddleware(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("missing authorization header", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/profile", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/profile", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRouter_ProfileWithValidToken(t *testing.T) {
	r, dbMock := newTestRouter(t)

	dbMock.ExpectQuery("SELECT id, username, email, password, role, mobile_number, is_mobile_verified, created_at").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "role", "mobile_number", "is_mobile_verified", "created_at"}).
			AddRow(1, "alice", "alice@example.com", "hash", "user", nil, false, time.Now()))

	req, _ := http.NewRequest("GET", "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tokenForTest(t, 1, model.RoleUser))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "alice")
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestRouter_AdminRoutes(t *testing.T) {
	t.Run("regular user is forbidden", func(t *testing.T) {
		r, _ := newTestRouter(t)

		req, _ := http.NewRequest("GET", "/api/admin/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+tokenForTest(t, 1, model.RoleUser))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin can list all accounts", func(t *testing.T) {
		r, dbMock := newTestRouter(t)

		dbMock.ExpectQuery("SELECT id, user_id, account_number, account_type, balance, currency, created_at, updated_at").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "account_number", "account_type", "balance", "currency", "created_at", "updated_at"}).
				AddRow(1, 1, 1000000001, "checking", "100.00", "USD", time.Now(), time.Now()))

		req, _ := http.NewRequest("GET", "/api/admin/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+tokenForTest(t, 2, model.RoleAdmin))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}
