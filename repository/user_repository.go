package repository

import (
	"database/sql"
	"go-trustbank/logger"
	"go-trustbank/model"

	"github.com/sirupsen/logrus"
)

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(userID int) (*model.User, error)
	SetMobileVerified(tx *sql.Tx, userID int, mobileNumber string) error
}

// UserRepository implements IUserRepository.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) CreateUser(user *model.User) error {
	query := `INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id, role, created_at`
	return r.DB.QueryRow(query, user.Username, user.Email, user.Password).
		Scan(&user.ID, &user.Role, &user.CreatedAt)
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password, role, mobile_number, is_mobile_verified, created_at
		FROM users WHERE email = $1`
	err := r.DB.QueryRow(query, email).Scan(&user.ID, &user.Username, &user.Email,
		&user.Password, &user.Role, &user.MobileNumber, &user.IsMobileVerified, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(userID int) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password, role, mobile_number, is_mobile_verified, created_at
		FROM users WHERE id = $1`
	err := r.DB.QueryRow(query, userID).Scan(&user.ID, &user.Username, &user.Email,
		&user.Password, &user.Role, &user.MobileNumber, &user.IsMobileVerified, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetMobileVerified raises the profile trust flag and pins the verified
// number. Runs inside the same transaction that marks the OTP record verified
// so the flag and the record can never diverge.
func (r *UserRepository) SetMobileVerified(tx *sql.Tx, userID int, mobileNumber string) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":       userID,
		"mobile_number": mobileNumber,
	})
	log.Info("Executing query to set the mobile verified flag")

	query := `UPDATE users SET is_mobile_verified = TRUE, mobile_number = $1 WHERE id = $2`
	_, err := tx.Exec(query, mobileNumber, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute set mobile verified query")
		return err
	}
	return nil
}
