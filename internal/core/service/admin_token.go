package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
)

var ErrAdminSecretMissing = errors.New("admin jwt secret is not configured")

// AdminTokenIssuer mints bearer tokens for the operator API.
type AdminTokenIssuer struct {
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAdminTokenIssuer(jwtSecret string, tokenTTL time.Duration) *AdminTokenIssuer {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AdminTokenIssuer{jwtSecret: jwtSecret, tokenTTL: tokenTTL, now: time.Now}
}

// Issue returns an HS256 token carrying the admin role for operator.
func (s *AdminTokenIssuer) Issue(operator string) (string, error) {
	if s.jwtSecret == "" {
		return "", ErrAdminSecretMissing
	}
	now := s.now()
	claims := jwt.MapClaims{
		"username": operator,
		"role":     domain.RoleAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
