package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const verificationPurpose = "email-verification"

// ErrInvalidToken is returned for malformed, expired or tampered tokens
var ErrInvalidToken = errors.New("invalid or expired token")

// VerificationClaims identifies the account whose email is being confirmed
type VerificationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks email verification tokens with HMAC-SHA256
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer whose tokens expire after ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueVerificationToken returns a signed token for the given account
func (i *TokenIssuer) IssueVerificationToken(userID int64, email string) (string, error) {
	now := i.now()
	claims := VerificationClaims{
		Email:   email,
		Purpose: verificationPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification token: %w", err)
	}
	return signed, nil
}

// ParseVerificationToken validates the token and returns its claims
func (i *TokenIssuer) ParseVerificationToken(raw string) (*VerificationClaims, error) {
	claims := &VerificationClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)

	_, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Purpose != verificationPurpose || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
