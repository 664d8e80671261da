package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the payload of access tokens issued by the identity backend.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the caller described by the claims.
func (c *AccessClaims) Identity() *Identity {
	if c == nil || c.Subject == "" {
		return nil
	}
	return &Identity{UserID: c.Subject, Email: c.Email}
}
