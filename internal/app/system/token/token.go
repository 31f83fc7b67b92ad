// internal/app/system/token/token.go

// Package token issues and verifies the one-time signup/login tokens
// handed out by the Discord bot. Tokens are stateless HMAC-signed JWTs:
// they carry enough claims (name, avatar, admin flag) to render the
// login confirmation screen without a database round trip, and expiry
// is enforced at verification time.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 10 * time.Minute

// ErrInvalid is returned for any token that fails verification:
// bad signature, wrong signing method, malformed, or expired.
var ErrInvalid = errors.New("invalid or expired login token")

// Principal is the guild identity a token is bound to.
type Principal struct {
	DiscordID string
	Name      string
	Avatar    string
	IsAdmin   bool
}

type claims struct {
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	IsAdmin bool   `json:"adm"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies login tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// New creates an Issuer. If ttl is zero or negative, DefaultTTL is used.
func New(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for the principal and returns it with its expiry.
func (i *Issuer) Issue(p Principal) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:    p.Name,
		Avatar:  p.Avatar,
		IsAdmin: p.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.DiscordID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign login token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token, returning the bound principal.
// Any failure (signature, signing method, expiry, garbage input) is
// reported as ErrInvalid; callers never learn why a token was rejected.
func (i *Issuer) Verify(tokenString string) (Principal, error) {
	var c claims
	t, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !t.Valid {
		return Principal{}, ErrInvalid
	}

	return Principal{
		DiscordID: c.Subject,
		Name:      c.Name,
		Avatar:    c.Avatar,
		IsAdmin:   c.IsAdmin,
	}, nil
}
