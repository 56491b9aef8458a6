package identity

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// IDTokenClaims claims carried by the identity provider's ID token
type IDTokenClaims struct {
	UID   string `json:"user_id"`
	Email string `json:"email"`
	Name  string `json:"name"`

	jwt.StandardClaims
}

// TimeRemaining remaining time before the token gets expired
func (tk *IDTokenClaims) TimeRemaining() time.Duration {
	exp := time.Unix(tk.ExpiresAt, 0)
	now := time.Now()

	if exp.Before(now) {
		return 0
	}
	return exp.Sub(now)
}

// DecodeIDToken extract claims from an ID token without verifying the
// signature. The token is only inspected to learn its expiry; the backend
// verifies it on exchange.
func DecodeIDToken(tokenStr string) (*IDTokenClaims, error) {
	claims := new(IDTokenClaims)
	parser := new(jwt.Parser)
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
