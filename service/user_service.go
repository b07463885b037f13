package service

import (
	"database/sql"
	"errors"
	"go-trustbank/model"
	"go-trustbank/repository"
)

var ErrUserNotFound = errors.New("user not found")

// UserService handles user-related business logic.
type UserService struct {
	userRepo repository.IUserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile returns the caller's profile, including the is_mobile_verified
// trust flag. The flag is the single source of truth for mobile trust: the
// rest of the system reads it from here and never re-checks OTP records.
func (s *UserService) GetProfile(userID int) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
