package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RegisterAdminRequest creates an admin account gated by the deployment secret.
type RegisterAdminRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	PhoneNo        string `json:"phone_no" validate:"required"`
	Password       string `json:"password" validate:"required,min=6"`
	AdminSecretKey string `json:"admin_secret_key" validate:"required"`
	ProfileImage   string `json:"profile_image"`
}

// RegisterStudentRequest creates a student account (admin only).
type RegisterStudentRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	PhoneNo       string `json:"phone_no" validate:"required"`
	Password      string `json:"password" validate:"required,min=6"`
	RollNo        string `json:"roll_no" validate:"required"`
	Dept          string `json:"dept" validate:"required"`
	Year          string `json:"year" validate:"required"`
	Accommodation string `json:"accommodation"`
	ProfileImage  string `json:"profile_image"`
}

// UpdateUserRequest updates mutable profile fields (admin only).
type UpdateUserRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email" validate:"omitempty,email"`
	PhoneNo       string `json:"phone_no"`
	RollNo        string `json:"roll_no"`
	Dept          string `json:"dept"`
	Year          string `json:"year"`
	Accommodation string `json:"accommodation"`
	ProfileImage  string `json:"profile_image"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    UserRole `json:"role"`
	PhoneNo string   `json:"phone_no"`
}

// RefreshToken is a persisted rotating refresh token.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}
