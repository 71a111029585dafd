package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenPurpose scopes what a signed token may be used for
type TokenPurpose string

const (
	PurposeAccess        TokenPurpose = "access"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// TokenClaims represents JWT claims issued by the auth service
type TokenClaims struct {
	UserID  string       `json:"user_id"`
	Role    Role         `json:"role"`
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenResponse is returned by login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"user"`
}
