package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the identity facts embedded in a bearer token.
type TokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *PublicUser `json:"user"`
	Token string      `json:"token"`
}

// TokenResult is returned by refresh.
type TokenResult struct {
	Token string `json:"token"`
}
