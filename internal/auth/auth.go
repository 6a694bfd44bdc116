// Package auth owns credential hashing and access-token handling. The
// service layer never sees tokens; it only receives the identity context
// this package produces.
package auth

import (
	"fmt"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/scope"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// TokenManager issues and verifies HS256 access tokens carrying the
// identity context claims.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user id and role.
func (m TokenManager) Issue(userID int64, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   userID,
		"user_type": role,
		"exp":       time.Now().Add(m.ttl).Unix(),
	})
	return token.SignedString(m.secret)
}

// Parse verifies a token and rebuilds the identity context from its
// claims. Any verification failure surfaces as Unauthorized.
func (m TokenManager) Parse(tokenString string) (scope.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return scope.Identity{}, domain.UnauthorizedError{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return scope.Identity{}, domain.UnauthorizedError{}
	}
	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return scope.Identity{}, domain.UnauthorizedError{}
	}
	role, _ := claims["user_type"].(string)
	return scope.ForUser(int64(rawID), role), nil
}
