// Package session carries the authenticated user of a request explicitly
// through the records client, the document coordinator and the
// questionnaire engine.
package session

import (
	"errors"
	"time"

	jwthandling "github.com/case-framework/records-portal/pkg/jwt-handling"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type Context struct {
	Token       string
	UserID      string
	Email       string
	DisplayName string
	IsAdmin     bool
	ExpiresAt   time.Time
}

// IsAuthenticated reports whether the context holds a token that has not
// expired at now.
func (s *Context) IsAuthenticated(now time.Time) bool {
	if s == nil || s.Token == "" || s.UserID == "" {
		return false
	}
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return false
	}
	return true
}

// Require returns ErrNotAuthenticated unless the context is usable now.
func (s *Context) Require() error {
	if !s.IsAuthenticated(time.Now()) {
		return ErrNotAuthenticated
	}
	return nil
}

// FromClaims builds the context for an already validated token.
func FromClaims(token string, claims *jwthandling.UserClaims) *Context {
	if claims == nil {
		return &Context{}
	}
	sc := &Context{
		Token:       token,
		UserID:      claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		IsAdmin:     claims.IsAdmin,
	}
	if claims.ExpiresAt != nil {
		sc.ExpiresAt = claims.ExpiresAt.Time
	}
	return sc
}

// FromToken validates token with signKey and builds the context.
func FromToken(token string, signKey string) (*Context, error) {
	claims, ok, err := jwthandling.ValidateUserToken(token, signKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, jwthandling.ErrInvalidToken
	}
	return FromClaims(token, claims), nil
}
