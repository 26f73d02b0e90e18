package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the session token claims. Tokens carry the principal's
// identity plus a jti for log correlation.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
