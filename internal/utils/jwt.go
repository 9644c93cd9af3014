package utils

import (
	"errors"
	"time"

	"tpos/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "tpos"

var errSecretNotConfigured = errors.New("JWT secret not configured")

// GenerateToken signs an access token for the given user claims.
func GenerateToken(secret string, ttl time.Duration, claims *models.UserClaims) (string, error) {
	if secret == "" {
		return "", errSecretNotConfigured
	}

	now := time.Now()
	accessClaims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   claims.UserID,
		},
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(secret))
}

// ParseToken parses and validates a JWT token string.
func ParseToken(secret, tokenStr string) (*models.UserClaims, error) {
	if secret == "" {
		return nil, errSecretNotConfigured
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
