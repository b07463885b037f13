package model

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID               int       `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Password         string    `json:"-"`
	Role             string    `json:"role"`
	MobileNumber     *string   `json:"mobile_number,omitempty"`
	IsMobileVerified bool      `json:"is_mobile_verified"`
	CreatedAt        time.Time `json:"created_at"`
}
