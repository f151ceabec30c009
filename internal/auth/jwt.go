package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoUserID = errors.New("token carries no user_id claim")

// GenerateToken signs an HS256 token for userID. Sessions are issued
// elsewhere; this exists for local development and tests.
func GenerateToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// ParseToken verifies tokenString and returns its user_id claim. Numeric
// ids are accepted and returned in decimal.
func ParseToken(secret []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	data, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoUserID
	}
	switch v := data["user_id"].(type) {
	case string:
		if v == "" {
			return "", ErrNoUserID
		}
		return v, nil
	case float64:
		return strconv.FormatInt(int64(v), 10), nil
	case nil:
		return "", ErrNoUserID
	default:
		return "", fmt.Errorf("unexpected user_id claim type %T", v)
	}
}
