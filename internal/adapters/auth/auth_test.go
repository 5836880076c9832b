package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"absentee/internal/domain/account"
)

type mockAccountStore struct {
	accounts map[string]account.Account
	saves    int
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := m.accounts[account.NormalizeEmail(email)]
	if !ok {
		return account.Account{}, errors.New("not found")
	}
	return a, nil
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.saves++
	m.accounts[a.Email] = a
	return nil
}

func newStoreWith(t *testing.T, email, password string) *mockAccountStore {
	t.Helper()
	a := account.Account{ID: "a1", Email: email, Role: account.RoleOperator}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a.PasswordHash = string(hash)
	return &mockAccountStore{accounts: map[string]account.Account{email: a}}
}

// TestSharedSecretChecker verifies plaintext and pre-hashed configuration.
func TestSharedSecretChecker(t *testing.T) {
	plain, err := NewSharedSecretChecker("", "front desk secret")
	if err != nil {
		t.Fatalf("NewSharedSecretChecker: %v", err)
	}
	p, err := plain.CheckCredentials(context.Background(), "Desk@Example.com", "front desk secret")
	if err != nil {
		t.Fatalf("CheckCredentials: %v", err)
	}
	if p.Email != "desk@example.com" || p.Role != account.RoleOperator {
		t.Errorf("principal = %+v", p)
	}
	if _, err := plain.CheckCredentials(context.Background(), "", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong secret: got %v", err)
	}

	hash, err := HashSecret("hashed secret")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	hashed, err := NewSharedSecretChecker(hash, "ignored")
	if err != nil {
		t.Fatalf("NewSharedSecretChecker(hash): %v", err)
	}
	p, err = hashed.CheckCredentials(context.Background(), "", "hashed secret")
	if err != nil {
		t.Fatalf("hashed CheckCredentials: %v", err)
	}
	if p.Email != "operator" {
		t.Errorf("anonymous principal email = %q, want operator", p.Email)
	}
	if _, err := hashed.CheckCredentials(context.Background(), "", "ignored"); err == nil {
		t.Error("plaintext must be ignored when a hash is configured")
	}
}

// TestNewSharedSecretChecker_Invalid verifies configuration errors.
func TestNewSharedSecretChecker_Invalid(t *testing.T) {
	if _, err := NewSharedSecretChecker("", ""); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewSharedSecretChecker("not-a-hash", ""); err == nil {
		t.Error("expected error for malformed hash")
	}
}

// TestAccountChecker_Success verifies a good login resets failures.
func TestAccountChecker_Success(t *testing.T) {
	store := newStoreWith(t, "desk@example.com", "correct password")
	a := store.accounts["desk@example.com"]
	a.FailedLogins = 2
	store.accounts["desk@example.com"] = a

	c := NewAccountChecker(store, nil)
	p, err := c.CheckCredentials(context.Background(), "desk@example.com", "correct password")
	if err != nil {
		t.Fatalf("CheckCredentials: %v", err)
	}
	if p.ID != "a1" {
		t.Errorf("principal = %+v", p)
	}
	if store.accounts["desk@example.com"].FailedLogins != 0 {
		t.Error("failed logins should be reset")
	}
}

// TestAccountChecker_Lockout verifies the fifth failure locks the account.
func TestAccountChecker_Lockout(t *testing.T) {
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	store := newStoreWith(t, "desk@example.com", "correct password")
	c := NewAccountChecker(store, func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < account.MaxFailedLogins-1; i++ {
		if _, err := c.CheckCredentials(ctx, "desk@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v", i+1, err)
		}
	}
	if _, err := c.CheckCredentials(ctx, "desk@example.com", "nope"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("final attempt: got %v, want ErrAccountLocked", err)
	}
	if _, err := c.CheckCredentials(ctx, "desk@example.com", "correct password"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("locked account accepted a correct password: %v", err)
	}

	now = now.Add(account.LockoutDuration + time.Second)
	if _, err := c.CheckCredentials(ctx, "desk@example.com", "correct password"); err != nil {
		t.Errorf("after lockout: %v", err)
	}
}

// TestAccountChecker_UnknownEmail verifies unknown users look like bad passwords.
func TestAccountChecker_UnknownEmail(t *testing.T) {
	c := NewAccountChecker(&mockAccountStore{accounts: map[string]account.Account{}}, nil)
	if _, err := c.CheckCredentials(context.Background(), "who@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("got %v", err)
	}
}
