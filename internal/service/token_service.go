package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/tripdesk/internal/domain"
)

const adminTokenIssuer = "tripdesk"

// ErrInvalidToken is returned for malformed, expired or foreign tokens
var ErrInvalidToken = errors.New("invalid or expired token")

// AdminTokenService issues and verifies HMAC-signed admin tokens
type AdminTokenService struct {
	secret []byte
}

func NewAdminTokenService(secret string) *AdminTokenService {
	return &AdminTokenService{secret: []byte(secret)}
}

// Issue signs a token for subject valid for ttl
func (s *AdminTokenService) Issue(subject, email string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("admin token secret is not configured")
	}

	now := time.Now()
	claims := domain.AdminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    adminTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, expiry and issuer
func (s *AdminTokenService) Parse(tokenString string) (*domain.AdminClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &domain.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(adminTokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*domain.AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
