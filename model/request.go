// file: model/request.go

package model

import "github.com/shopspring/decimal"

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest defines the payload for exchanging a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateAccountRequest defines the payload for opening a new account.
type CreateAccountRequest struct {
	AccountType string `json:"account_type" validate:"omitempty,oneof=checking savings investment"`
	Currency    string `json:"currency" validate:"omitempty,len=3,uppercase"`
}

// CreateTransactionRequest defines the payload for any money movement.
// Which of the account references must be present depends on transaction_type
// and is enforced by the ledger engine, not here: the engine owns the shape
// rules and reports a distinct error per violation.
type CreateTransactionRequest struct {
	FromAccountID   *int            `json:"from_account_id"`
	ToAccountID     *int            `json:"to_account_id"`
	ToAccountNumber *int64          `json:"to_account_number"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	TransactionType string          `json:"transaction_type" validate:"required"`
	Description     string          `json:"description" validate:"max=255"`
}

// IssueOTPRequest defines the payload for requesting a verification code.
// The owning user comes from the authenticated caller, never from the body.
type IssueOTPRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,e164"`
}

// VerifyOTPRequest defines the payload for presenting a verification code.
type VerifyOTPRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,e164"`
	OTPCode      string `json:"otp_code" validate:"required,len=6,numeric"`
}
