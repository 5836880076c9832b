package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"absentee/internal/domain/account"
)

// AccountStore is the subset of the account store AccountChecker needs.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// AccountChecker verifies operators against stored accounts with lockout.
type AccountChecker struct {
	store AccountStore
	now   func() time.Time
}

// NewAccountChecker creates a checker backed by store. now may be nil.
func NewAccountChecker(store AccountStore, now func() time.Time) *AccountChecker {
	if now == nil {
		now = time.Now
	}
	return &AccountChecker{store: store, now: now}
}

// CheckCredentials validates email and password.
// PRE: none
// POST: failed attempts are recorded on the account; success resets them
// INVARIANT: locked accounts are refused before the password is compared
func (c *AccountChecker) CheckCredentials(ctx context.Context, email, password string) (Principal, error) {
	if email == "" || password == "" {
		return Principal{}, ErrInvalidCredentials
	}
	acct, err := c.store.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return Principal{}, ErrInvalidCredentials
	}

	now := c.now()
	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return Principal{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(password); err != nil {
		acct.RecordFailedLogin(now)
		if saveErr := c.store.Save(ctx, acct); saveErr != nil {
			slog.Error("auth_event", "event", "lockout_save_failed", "email", email, "error", saveErr.Error())
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		if acct.IsLocked(now) {
			return Principal{}, ErrAccountLocked
		}
		return Principal{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		if err := c.store.Save(ctx, acct); err != nil {
			return Principal{}, fmt.Errorf("reset failed logins: %w", err)
		}
	}
	return Principal{ID: acct.ID, Email: acct.Email, Role: acct.Role}, nil
}

// Mode implements CredentialChecker.
func (c *AccountChecker) Mode() string { return ModeAccounts }
