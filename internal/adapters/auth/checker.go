// Package auth holds the credential checkers an operator login can be
// verified against. Exactly one checker is active per process.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials covers every "who are you" failure so callers
	// cannot tell unknown users from wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked is returned while an account is in lockout.
	ErrAccountLocked = errors.New("account is locked due to too many failed attempts")
)

// Checker modes, matching the auth.mode configuration values.
const (
	ModeSharedSecret = "shared_secret"
	ModeAccounts     = "accounts"
)

// Principal is the identity a successful check yields. It becomes the session.
type Principal struct {
	ID    string
	Email string
	Role  string
}

// CredentialChecker verifies a login once; the resulting Principal is then
// carried by the session, so checkers are never consulted per request.
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, email, password string) (Principal, error)
	// Mode names the checker in logs.
	Mode() string
}
