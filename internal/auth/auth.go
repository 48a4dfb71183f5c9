// Package auth provides minimal session authentication helpers.
//
// It intentionally avoids policy decisions and storage concerns. Sessions
// run unauthenticated unless the daemon config supplies a token.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator validates an authentication token.
type Validator interface {
	Validate(token string) error
}

// StaticToken is a simple validator for a single shared token, intended for
// local single-operator deployments.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(token string) error

func (f FuncValidator) Validate(token string) error {
	return f(token)
}

// AllowAll accepts every token, including the empty one.
func AllowAll() Validator {
	return FuncValidator(func(string) error { return nil })
}

// TokenFromRequest extracts the session token from a connect request:
// Authorization bearer header first, then the token query parameter for
// clients that cannot set headers during a WebSocket handshake.
func TokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
