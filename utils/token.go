package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/LovationAdmin/bizpanel/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the payload of an access token issued by the auth service.
type SessionClaims struct {
	Email       string               `json:"email,omitempty"`
	Permissions models.PermissionSet `json:"permissions"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an HS256 session token.
func GenerateAccessToken(secret, userID, email string, perms models.PermissionSet, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email:       email,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
func ParseAccessToken(secret, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
