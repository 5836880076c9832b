package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"absentee/internal/adapters/auth"
	"absentee/internal/observability"
)

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Checker auth.CredentialChecker
}

// ExecuteLogin checks credentials once and returns the principal a session is built from.
// PRE: deps.Checker is set
// POST: Returns the principal on success, auth.ErrInvalidCredentials or auth.ErrAccountLocked otherwise
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (auth.Principal, error) {
	email := strings.TrimSpace(input.Email)
	if input.Password == "" {
		observability.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return auth.Principal{}, auth.ErrInvalidCredentials
	}

	p, err := deps.Checker.CheckCredentials(ctx, email, input.Password)
	switch {
	case errors.Is(err, auth.ErrAccountLocked):
		observability.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return auth.Principal{}, err
	case err != nil:
		observability.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		slog.Info("auth_event", "event", "login_failed", "mode", deps.Checker.Mode(), "email", email)
		return auth.Principal{}, auth.ErrInvalidCredentials
	}

	observability.LoginAttemptsTotal.WithLabelValues("success").Inc()
	slog.Info("auth_event", "event", "login_success", "mode", deps.Checker.Mode(), "email", p.Email, "role", p.Role)
	return p, nil
}
