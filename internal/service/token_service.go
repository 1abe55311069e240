package service

import (
	"time"

	"crewline/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs and verifies the credentials used by both the REST
// middleware and the gateway handshake.
type TokenService interface {
	Issue(userID string, ttl time.Duration) (string, error)
	Verify(token string) (string, error)
}

type tokenService struct {
	key []byte
}

func NewTokenService(secret string) TokenService {
	return &tokenService{key: []byte(secret)}
}

func (s *tokenService) Issue(userID string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	})
	return token.SignedString(s.key)
}

// Verify parses the signed credential and returns the subject user id.
func (s *tokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", apperr.Authorization("token is required")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Authorization("unexpected signing method")
		}
		return s.key, nil
	})
	if err != nil || !token.Valid {
		return "", apperr.Authorization("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.Authorization("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", apperr.Authorization("subject missing in token")
	}
	return sub, nil
}
