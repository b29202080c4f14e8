// Package auth verifies bearer tokens at the HTTP boundary and places a
// typed principal in the request context. Token issuance belongs to the
// identity service; this package only checks signatures and roles.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleVendor Role = "vendor"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleBuyer, RoleVendor:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Principal is the authenticated caller. Handlers receive it from the
// context and never inspect tokens themselves.
type Principal struct {
	UserID int64
	Name   string
	Role   Role
}

type claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// Verifier checks HMAC-signed tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

func (v *Verifier) Verify(token string) (Principal, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}

	role, err := ParseRole(c.Role)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}

	var userID int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &userID); err != nil {
		return Principal{}, ErrInvalidToken
	}

	return Principal{UserID: userID, Name: c.Name, Role: role}, nil
}

// Sign mints a token for the given principal. Used by tests and local
// tooling; production tokens come from the identity service.
func Sign(secret []byte, p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Name: p.Name,
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", p.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
