package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a registered player account.
type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"-"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Country      string    `db:"country" json:"country"`
	Activated    bool      `db:"activated" json:"activated"`
	Restricted   bool      `db:"restricted" json:"restricted"`
	CanReview    bool      `db:"is_bat" json:"canReview"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// JWTClaims is the access token payload. CanReview carries the reviewer
// capability consumed by the status transition workflow.
type JWTClaims struct {
	UserID    int    `json:"user_id"`
	Name      string `json:"name"`
	CanReview bool   `json:"can_review"`
	jwt.RegisteredClaims
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CanReview bool   `json:"canReview"`
}
