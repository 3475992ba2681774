package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims carried by an auth token.
type Claims struct {
	Subject   string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Peek decodes the claims of token without checking its signature. The
// result is for display only; the API remains the authority on validity.
func Peek(token string) (Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &registered); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}

	out := Claims{Subject: registered.Subject}
	if registered.IssuedAt != nil {
		issued := registered.IssuedAt.Time
		out.IssuedAt = &issued
	}
	if registered.ExpiresAt != nil {
		expires := registered.ExpiresAt.Time
		out.ExpiresAt = &expires
	}
	return out, nil
}
