package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"absentee/internal/domain/account"
)

// SharedSecretChecker gates access with one secret shared by every operator.
// The email is optional and only labels the session.
type SharedSecretChecker struct {
	hash []byte
}

// NewSharedSecretChecker accepts either a bcrypt hash or a plaintext secret;
// a non-empty hash wins.
// PRE: at least one of hash and secret is non-empty
// POST: the plaintext is never retained
func NewSharedSecretChecker(hash, secret string) (*SharedSecretChecker, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("shared secret hash is not a bcrypt hash: %w", err)
		}
		return &SharedSecretChecker{hash: []byte(hash)}, nil
	}
	if secret == "" {
		return nil, fmt.Errorf("shared secret is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash shared secret: %w", err)
	}
	return &SharedSecretChecker{hash: h}, nil
}

// CheckCredentials compares password against the shared secret.
func (c *SharedSecretChecker) CheckCredentials(_ context.Context, email, password string) (Principal, error) {
	if password == "" {
		return Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(password)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	label := account.NormalizeEmail(email)
	if label == "" {
		label = "operator"
	}
	return Principal{ID: "shared:" + label, Email: label, Role: account.RoleOperator}, nil
}

// Mode implements CredentialChecker.
func (c *SharedSecretChecker) Mode() string { return ModeSharedSecret }

// HashSecret produces a value suitable for auth.secret_hash.
func HashSecret(secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("secret is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(h), err
}
