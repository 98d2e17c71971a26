package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims are the claims of a locally issued admin token (cron jobs, scripts)
type AdminClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
