package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/klokku/notebook/internal/utils"
)

var ErrInvalidToken = errors.New("invalid token")

const issuer = "notebook"

type Claims struct {
	Uid       string
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// Tokens issues and validates the bearer tokens handed out after sign-in.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  utils.Clock
}

func NewTokens(secret string, ttl time.Duration, clock utils.Clock) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("auth secret is not configured")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl %s", ttl)
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

// Issue signs a token for the user with the given uid.
func (t *Tokens) Issue(uid string) (string, time.Time, error) {
	now := t.clock.Now()
	expiresAt := now.Add(t.ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature, issuer and expiry. Every failure wraps ErrInvalidToken.
func (t *Tokens) Validate(token string) (Claims, error) {
	if token == "" {
		return Claims{}, fmt.Errorf("%w: token missing", ErrInvalidToken)
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return Claims{Uid: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
