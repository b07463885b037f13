// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"go-trustbank/config"
	"go-trustbank/db"
	"go-trustbank/handler"
	"go-trustbank/logger"
	"go-trustbank/repository"
	"go-trustbank/router"
	"go-trustbank/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	r := buildRouter(database, redisClient)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// buildRouter wires all layers together. This is the single place where
// repositories, services and handlers meet.
func buildRouter(database *sql.DB, redisClient *redis.Client) http.Handler {
	// Repositories
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	accountRepo := repository.NewAccountRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)
	otpRepo := repository.NewOTPRepository(database)

	// Services
	authService := service.NewAuthService(userRepo, tokenRepo)
	userService := service.NewUserService(userRepo)
	accountService := service.NewAccountService(accountRepo, redisClient)
	transactionService := service.NewTransactionService(database, accountRepo, transactionRepo, redisClient)

	otpCfg := config.AppConfig.OTP
	otpService := service.NewOTPService(database, otpRepo, userRepo, redisClient, newSMSSender(),
		time.Duration(otpCfg.TTLMinutes)*time.Minute,
		time.Duration(otpCfg.CooldownSeconds)*time.Second)

	// Handlers
	userHandler := handler.NewUserHandler(userRepo, authService, userService)
	accountHandler := handler.NewAccountHandler(accountService)
	transactionHandler := handler.NewTransactionHandler(transactionService, accountService)
	otpHandler := handler.NewOTPHandler(otpService)

	return router.NewRouter(userHandler, accountHandler, transactionHandler, otpHandler)
}

func newSMSSender() service.SMSSender {
	switch config.AppConfig.SMS.Provider {
	case "log", "":
		return service.NewLogSMSSender()
	default:
		logger.Log.WithField("provider", config.AppConfig.SMS.Provider).
			Warn("Unknown SMS provider, falling back to log delivery")
		return service.NewLogSMSSender()
	}
}
