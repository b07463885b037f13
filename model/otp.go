package model

import "time"

// MobileVerification is one issued OTP code. Rows are never deleted; they form
// the audit trail of verification attempts. Only the most recently created
// unverified row per (user, mobile number) is ever evaluated by the verifier.
type MobileVerification struct {
	ID           int        `json:"id"`
	UserID       int        `json:"user_id"`
	MobileNumber string     `json:"mobile_number"`
	OTPCode      string     `json:"-"` // never exposed in responses
	ExpiresAt    time.Time  `json:"expires_at"`
	IsVerified   bool       `json:"is_verified"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
