package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"go-trustbank/logger"
	"go-trustbank/model"
	"go-trustbank/repository"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoActiveOTP       = errors.New("no valid verification code found")
	ErrOTPExpired        = errors.New("verification code has expired")
	ErrOTPCodeMismatch   = errors.New("invalid verification code")
	ErrOTPRequestTooSoon = errors.New("a verification code was sent recently, please wait before requesting another")
	ErrOTPDeliveryFailed = errors.New("could not deliver the verification code")
)

// OTPService drives the mobile verification state machine: Issue creates a
// time-boxed code, Verify checks the most recent unverified code and raises
// the profile trust flag. Codes are never deleted; the latest unverified
// record per (user, mobile number) is the only one ever evaluated.
type OTPService struct {
	db       *sql.DB
	otpRepo  repository.IOTPRepository
	userRepo repository.IUserRepository
	cache    ICacheClient
	sms      SMSSender
	ttl      time.Duration
	cooldown time.Duration
}

func NewOTPService(db *sql.DB, otpRepo repository.IOTPRepository, userRepo repository.IUserRepository,
	cache ICacheClient, sms SMSSender, ttl, cooldown time.Duration) *OTPService {
	return &OTPService{
		db:       db,
		otpRepo:  otpRepo,
		userRepo: userRepo,
		cache:    cache,
		sms:      sms,
		ttl:      ttl,
		cooldown: cooldown,
	}
}

// IssueOTP generates a 6-digit code for the (caller, mobile number) pair,
// persists a new unverified record with the configured TTL and hands the code
// to the SMS collaborator. Prior unverified codes for the pair are not
// invalidated; they are superseded by the latest-record selection in VerifyOTP.
func (s *OTPService) IssueOTP(ctx context.Context, userID int, mobileNumber string) (*model.MobileVerification, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":       userID,
		"mobile_number": mobileNumber,
	})
	log.Info("Issuing a new verification code")

	if s.cache != nil {
		cooldownKey := fmt.Sprintf("otp:cooldown:%d:%s", userID, mobileNumber)
		acquired, err := s.cache.SetNX(ctx, cooldownKey, 1, s.cooldown).Result()
		if err != nil {
			// The throttle is protection, not correctness; issue anyway.
			log.WithError(err).Warn("Could not check the OTP cooldown key")
		} else if !acquired {
			return nil, ErrOTPRequestTooSoon
		}
	}

	code, err := generateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("could not generate verification code: %w", err)
	}

	record := &model.MobileVerification{
		UserID:       userID,
		MobileNumber: mobileNumber,
		OTPCode:      code,
		ExpiresAt:    time.Now().Add(s.ttl),
	}
	if err := s.otpRepo.Create(record); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(s.ttl.Minutes()))
	if err := s.sms.Send(ctx, mobileNumber, message); err != nil {
		// The record stays: the caller is told delivery failed, but a retry
		// of the send never invalidates what was already issued.
		log.WithError(err).Error("SMS delivery failed for verification code")
		return nil, ErrOTPDeliveryFailed
	}

	log.WithField("expires_at", record.ExpiresAt).Info("Verification code issued")
	return record, nil
}

// VerifyOTP validates a presented code against the current record and, on
// success, atomically marks the record verified and raises the profile's
// is_mobile_verified flag. The two updates commit together or not at all.
//
// Under concurrent identical requests at most one succeeds: the record update
// is conditional on the row still being unverified, so the loser observes no
// row change and reports no active code.
func (s *OTPService) VerifyOTP(ctx context.Context, userID int, mobileNumber, code string) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":       userID,
		"mobile_number": mobileNumber,
	})
	log.Info("Verifying a presented code")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	record, err := s.otpRepo.GetLatestUnverified(tx, userID, mobileNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNoActiveOTP
		}
		return err
	}

	now := time.Now()
	if now.After(record.ExpiresAt) {
		return ErrOTPExpired
	}
	if record.OTPCode != code {
		return ErrOTPCodeMismatch
	}

	won, err := s.otpRepo.MarkVerified(tx, record.ID, now)
	if err != nil {
		return err
	}
	if !won {
		// A concurrent verification got here first; the record is no longer
		// the current unverified one.
		return ErrNoActiveOTP
	}

	if err := s.userRepo.SetMobileVerified(tx, userID, mobileNumber); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit verification: %w", err)
	}

	log.Info("Mobile number verified successfully")
	return nil
}

// generateOTPCode returns a zero-padded 6-digit code from crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
