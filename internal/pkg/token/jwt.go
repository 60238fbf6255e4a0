package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims for a session token.
type Claims struct {
	SessionID string `json:"sid"`
	UID       string `json:"uid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Generate creates a signed HS256 token for the session.
func Generate(sessionID, uid, email, secretKey string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &Claims{
		SessionID: sessionID,
		UID:       uid,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secretKey))
}

// Validate parses and validates a token string.
func Validate(tokenString, secretKey string) (*Claims, error) {
	return parse(tokenString, secretKey)
}

// ParseIgnoringExpiry verifies the signature but accepts expired tokens.
// Sign-out uses it so a stale token can still end its session.
func ParseIgnoringExpiry(tokenString, secretKey string) (*Claims, error) {
	return parse(tokenString, secretKey, jwt.WithoutClaimsValidation())
}

func parse(tokenString, secretKey string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if !t.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.SessionID == "" {
		return nil, errors.New("token carries no session id")
	}

	return claims, nil
}
