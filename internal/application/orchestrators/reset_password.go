package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"absentee/internal/domain/account"
)

// AccountStoreForResetPassword defines the store interface needed by ResetPassword.
type AccountStoreForResetPassword interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ResetPasswordInput carries input for the reset-password orchestrator.
type ResetPasswordInput struct {
	Email       string
	NewPassword string
}

// ResetPasswordDeps holds dependencies for ResetPassword.
type ResetPasswordDeps struct {
	AccountStore AccountStoreForResetPassword
}

var ErrAccountNotFound = errors.New("no account with this email")

// ExecuteResetPassword sets a new password for an operator and lifts any lockout.
// PRE: NewPassword satisfies account.MinPasswordLength
// POST: Password is replaced; FailedLogins is 0 and the account is unlocked
func ExecuteResetPassword(ctx context.Context, input ResetPasswordInput, deps ResetPasswordDeps) error {
	if input.Email == "" || input.NewPassword == "" {
		return errors.New("email and new password are required")
	}

	acct, err := deps.AccountStore.GetByEmail(ctx, account.NormalizeEmail(input.Email))
	if err != nil {
		return ErrAccountNotFound
	}

	if err := acct.SetPassword(input.NewPassword); err != nil {
		return err
	}
	acct.ResetFailedLogins()

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	slog.Info("auth_event", "event", "password_reset", "account_id", acct.ID)
	return nil
}
