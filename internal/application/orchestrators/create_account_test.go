package orchestrators

import (
	"context"
	"errors"
	"testing"

	"absentee/internal/domain/account"
)

// mockAccountStoreForCreate implements AccountStoreForCreate for testing.
type mockAccountStoreForCreate struct {
	accounts map[string]account.Account
}

func newMockAccountStore() *mockAccountStoreForCreate {
	return &mockAccountStoreForCreate{accounts: make(map[string]account.Account)}
}

func (m *mockAccountStoreForCreate) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := m.accounts[email]
	if !ok {
		return account.Account{}, errors.New("not found")
	}
	return a, nil
}

func (m *mockAccountStoreForCreate) Save(_ context.Context, a account.Account) error {
	m.accounts[a.Email] = a
	return nil
}

func (m *mockAccountStoreForCreate) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

// TestExecuteCreateAccount_Valid tests an operator account is created with a hashed password.
func TestExecuteCreateAccount_Valid(t *testing.T) {
	store := newMockAccountStore()
	id, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
		Email:    "Desk@Example.com",
		Password: "a long enough password",
	}, CreateAccountDeps{AccountStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Error("expected a generated ID")
	}
	a, ok := store.accounts["desk@example.com"]
	if !ok {
		t.Fatal("expected account stored under normalized email")
	}
	if a.Role != account.RoleOperator {
		t.Errorf("expected role=operator, got %s", a.Role)
	}
	if a.PasswordHash == "" || a.PasswordHash == "a long enough password" {
		t.Error("expected password to be hashed")
	}
}

// TestExecuteCreateAccount_Duplicate tests email uniqueness.
func TestExecuteCreateAccount_Duplicate(t *testing.T) {
	store := newMockAccountStore()
	store.accounts["desk@example.com"] = account.Account{ID: "a1", Email: "desk@example.com"}
	_, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
		Email:    "desk@example.com",
		Password: "a long enough password",
	}, CreateAccountDeps{AccountStore: store})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

// TestExecuteCreateAccount_Invalid tests validation failures.
func TestExecuteCreateAccount_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateAccountInput
		wantErr error
	}{
		{"empty email", CreateAccountInput{Password: "a long enough password"}, account.ErrEmptyEmail},
		{"short password", CreateAccountInput{Email: "a@b.c", Password: "short"}, account.ErrPasswordTooShort},
		{"bad role", CreateAccountInput{Email: "a@b.c", Password: "a long enough password", Role: "coach"}, account.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockAccountStore()
			_, err := ExecuteCreateAccount(context.Background(), tt.input, CreateAccountDeps{AccountStore: store})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(store.accounts) != 0 {
				t.Error("expected nothing stored")
			}
		})
	}
}

// TestExecuteSeedAdmin tests the first-run admin seed.
func TestExecuteSeedAdmin(t *testing.T) {
	store := newMockAccountStore()
	deps := CreateAccountDeps{AccountStore: store}

	if err := ExecuteSeedAdmin(context.Background(), deps, "lead@example.org", "a long enough password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := store.accounts["lead@example.org"]
	if !ok || a.Role != account.RoleAdmin {
		t.Fatalf("expected admin account, got %+v", a)
	}

	// second run is a no-op even with a different email
	if err := ExecuteSeedAdmin(context.Background(), deps, "other@example.org", "a long enough password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.accounts) != 1 {
		t.Errorf("expected 1 account, got %d", len(store.accounts))
	}
}

// TestExecuteSeedAdmin_NoPassword tests that an empty database needs a password.
func TestExecuteSeedAdmin_NoPassword(t *testing.T) {
	err := ExecuteSeedAdmin(context.Background(), CreateAccountDeps{AccountStore: newMockAccountStore()}, "lead@example.org", "")
	if err == nil {
		t.Fatal("expected error")
	}
}
