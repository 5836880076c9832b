package orchestrators

import (
	"context"
	"errors"
	"testing"

	"absentee/internal/adapters/auth"
)

// mockChecker implements auth.CredentialChecker for testing.
type mockChecker struct {
	principal auth.Principal
	err       error
	calls     int
}

func (m *mockChecker) CheckCredentials(_ context.Context, _, _ string) (auth.Principal, error) {
	m.calls++
	return m.principal, m.err
}

func (m *mockChecker) Mode() string { return "mock" }

// TestExecuteLogin_Success tests a good login returns the principal.
func TestExecuteLogin_Success(t *testing.T) {
	checker := &mockChecker{principal: auth.Principal{ID: "a1", Email: "desk@example.com", Role: "operator"}}
	p, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    " desk@example.com ",
		Password: "correct horse battery",
	}, LoginDeps{Checker: checker})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "a1" {
		t.Errorf("expected ID=a1, got %s", p.ID)
	}
}

// TestExecuteLogin_EmptyPassword tests the checker is never consulted without a password.
func TestExecuteLogin_EmptyPassword(t *testing.T) {
	checker := &mockChecker{}
	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "desk@example.com"}, LoginDeps{Checker: checker})
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if checker.calls != 0 {
		t.Errorf("expected no checker calls, got %d", checker.calls)
	}
}

// TestExecuteLogin_Failures tests error mapping.
func TestExecuteLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"wrong password", auth.ErrInvalidCredentials, auth.ErrInvalidCredentials},
		{"locked", auth.ErrAccountLocked, auth.ErrAccountLocked},
		{"store failure hidden", errors.New("connection reset"), auth.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteLogin(context.Background(), LoginInput{
				Email:    "desk@example.com",
				Password: "whatever",
			}, LoginDeps{Checker: &mockChecker{err: tt.err}})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
