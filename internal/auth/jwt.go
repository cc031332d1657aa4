package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// ValidateJWT parses and verifies an HS256 token and returns its claims.
func ValidateJWT(tokenString, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token is required")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// UserIDFromBearer extracts the user ID from an Authorization header value.
// An empty header yields an empty user ID without error.
func UserIDFromBearer(header, secret string) (string, error) {
	if header == "" {
		return "", nil
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims, err := ValidateJWT(tokenString, secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// GenerateJWT mints a token for a user, mainly for tests and local tooling.
func GenerateJWT(userID, secret string) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
