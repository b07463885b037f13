package router

import (
	"go-trustbank/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go-trustbank/docs"
)

func NewRouter(userHandler *handler.UserHandler, accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler, otpHandler *handler.OTPHandler) http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /login", handler.ErrorHandlingMiddleware(userHandler.Login))
	mux.Handle("POST /api/token/refresh", handler.ErrorHandlingMiddleware(userHandler.Refresh))

	// Authenticated routes
	mux.Handle("POST /api/logout", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(userHandler.Logout)))
	mux.Handle("GET /api/profile", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(userHandler.GetProfile)))

	mux.Handle("POST /api/accounts", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(accountHandler.CreateAccount)))
	mux.Handle("GET /api/accounts", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(accountHandler.ListAccounts)))

	mux.Handle("POST /api/transactions", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(transactionHandler.CreateTransaction)))
	mux.Handle("GET /api/transactions", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(transactionHandler.ListTransactionsForOwner)))
	mux.Handle("GET /api/accounts/{accountId}/transactions", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(transactionHandler.ListTransactionsForAccount)))

	mux.Handle("POST /api/otp/issue", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(otpHandler.IssueOTP)))
	mux.Handle("POST /api/otp/verify", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(otpHandler.VerifyOTP)))

	// Admin routes
	mux.Handle("GET /api/admin/accounts", handler.AuthMiddleware(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(accountHandler.GetAllAccounts))))

	return mux
}
