package repository

import (
	"database/sql"
	"go-trustbank/logger"
	"go-trustbank/model"
	"time"

	"github.com/sirupsen/logrus"
)

// IOTPRepository defines the contract for mobile verification database operations.
type IOTPRepository interface {
	Create(record *model.MobileVerification) error
	GetLatestUnverified(tx *sql.Tx, userID int, mobileNumber string) (*model.MobileVerification, error)
	MarkVerified(tx *sql.Tx, recordID int, verifiedAt time.Time) (bool, error)
}

// OTPRepository implements IOTPRepository.
type OTPRepository struct {
	DB *sql.DB
}

func NewOTPRepository(db *sql.DB) *OTPRepository {
	return &OTPRepository{DB: db}
}

// Create inserts a new unverified verification record. Existing records for
// the same (user, mobile) pair are left untouched; the latest-unverified
// selection in GetLatestUnverified supersedes them implicitly.
func (r *OTPRepository) Create(record *model.MobileVerification) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":       record.UserID,
		"mobile_number": record.MobileNumber,
		"expires_at":    record.ExpiresAt,
	})
	log.Info("Executing query to create a new mobile verification record")

	query := `INSERT INTO mobile_verifications (user_id, mobile_number, otp_code, expires_at)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.DB.QueryRow(query, record.UserID, record.MobileNumber, record.OTPCode, record.ExpiresAt).
		Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create mobile verification query")
		return err
	}
	return nil
}

// GetLatestUnverified returns the current verification record for the pair:
// the most recently created row that has not been verified yet.
func (r *OTPRepository) GetLatestUnverified(tx *sql.Tx, userID int, mobileNumber string) (*model.MobileVerification, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":       userID,
		"mobile_number": mobileNumber,
	})
	log.Info("Executing query to get the latest unverified record")

	record := &model.MobileVerification{}
	query := `SELECT id, user_id, mobile_number, otp_code, expires_at, is_verified, created_at
		FROM mobile_verifications
		WHERE user_id = $1 AND mobile_number = $2 AND is_verified = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	err := tx.QueryRow(query, userID, mobileNumber).Scan(&record.ID, &record.UserID,
		&record.MobileNumber, &record.OTPCode, &record.ExpiresAt, &record.IsVerified, &record.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("No unverified record found")
		} else {
			log.WithError(err).Error("Failed to execute get latest unverified query")
		}
		return nil, err
	}
	return record, nil
}

// MarkVerified flips the verified flag of a single record, conditionally: the
// update only matches while the record is still unverified, so of two
// concurrent verifications exactly one observes a row change. Returns whether
// this caller won the update.
func (r *OTPRepository) MarkVerified(tx *sql.Tx, recordID int, verifiedAt time.Time) (bool, error) {
	log := logger.Log.WithField("record_id", recordID)
	log.Info("Executing query to mark verification record as verified")

	query := `UPDATE mobile_verifications SET is_verified = TRUE, verified_at = $1
		WHERE id = $2 AND is_verified = FALSE`
	result, err := tx.Exec(query, verifiedAt, recordID)
	if err != nil {
		log.WithError(err).Error("Failed to execute mark verified query")
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.WithError(err).Error("Failed to read rows affected for mark verified query")
		return false, err
	}
	return affected == 1, nil
}
