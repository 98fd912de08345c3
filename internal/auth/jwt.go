// Package auth issues and validates the JWT bearer tokens that protect the
// control API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims embedded in a control-API token
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

const tokenTTL = 24 * time.Hour

// Service signs and validates tokens with a shared HMAC secret
type Service struct {
	secret []byte
}

// NewService creates a token service. The secret must come from configuration,
// never from source.
func NewService(secret []byte) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &Service{secret: secret}, nil
}

// GenerateToken generates a client token valid for 24 hours
func (s *Service) GenerateToken(clientID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(tokenTTL)
	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a token string and returns its claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrInvalidKey
}
