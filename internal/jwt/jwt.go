package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ExpirationDate returns the expiration date (UTC) of the JWT token.
// The signature is not verified, the token is only inspected.
func ExpirationDate(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("no expiration date found in the token")
	}

	return claims.ExpiresAt.Time.UTC(), nil
}

