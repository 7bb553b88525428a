package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/repository/repotest"
)

func validRegistration() Registration {
	return Registration{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "Ada@Example.com ",
		Password:       "analytical",
		PasswordVerify: "analytical",
	}
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_NewUser(t *testing.T) {
	store := repotest.NewMemoryStore()
	svc := newTestAuthService(t, store)

	res, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Token == "" {
		t.Error("Register() returned an empty token")
	}
	if res.User.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized %q", res.User.Email, "ada@example.com")
	}
	if res.User.PasswordHash == "analytical" {
		t.Error("password stored in plaintext")
	}

	// The token's subject is the new account.
	sub, err := svc.tokens.Validate(res.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sub != res.User.ID {
		t.Errorf("token subject = %q, want %q", sub, res.User.ID)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Registration)
	}{
		{"missing first name", func(r *Registration) { r.FirstName = " " }},
		{"missing verify", func(r *Registration) { r.PasswordVerify = "" }},
		{"bad email", func(r *Registration) { r.Email = "not-an-email" }},
		{"short password", func(r *Registration) { r.Password, r.PasswordVerify = "short", "short" }},
		{"mismatch", func(r *Registration) { r.PasswordVerify = "analyticaL" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, repotest.NewMemoryStore())
			in := validRegistration()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t, repotest.NewMemoryStore())

	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Register() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t, repotest.NewMemoryStore())
	reg, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	res, err := svc.Login(context.Background(), "  ADA@example.com", "analytical")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Errorf("Login() user = %q, want %q", res.User.ID, reg.User.ID)
	}
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc := newTestAuthService(t, repotest.NewMemoryStore())
	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errWrong := svc.Login(context.Background(), "ada@example.com", "not-the-password")
	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", "analytical")

	if !errors.Is(errWrong, apperror.ErrUnauthorized) || !errors.Is(errUnknown, apperror.ErrUnauthorized) {
		t.Fatalf("errors = %v / %v, want ErrUnauthorized for both", errWrong, errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Errorf("messages differ: %q vs %q", errWrong, errUnknown)
	}
}

func TestLogin_BackendFailure(t *testing.T) {
	store := repotest.NewMemoryStore()
	svc := newTestAuthService(t, store)
	store.Fail("GetUserByEmail", apperror.Backend("memory", errors.New("down")))

	_, err := svc.Login(context.Background(), "ada@example.com", "analytical")
	if !errors.Is(err, apperror.ErrBackend) {
		t.Fatalf("Login() error = %v, want ErrBackend", err)
	}
}

// =========================================================================
// CurrentUser TESTS
// =========================================================================

func TestCurrentUser(t *testing.T) {
	store := repotest.NewMemoryStore()
	svc := newTestAuthService(t, store)
	u := createTestUser(t, store, "me@example.com")

	got, err := svc.CurrentUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if got.Email != "me@example.com" {
		t.Errorf("CurrentUser() = %+v", got)
	}

	for _, id := range []string{"", "999"} {
		_, err := svc.CurrentUser(context.Background(), modelID(id))
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("CurrentUser(%q) error = %v, want ErrUnauthorized", id, err)
		}
	}
}

func TestRegister_ReportsFormField(t *testing.T) {
	svc := newTestAuthService(t, repotest.NewMemoryStore())
	in := validRegistration()
	in.PasswordVerify = "something-else"

	_, err := svc.Register(context.Background(), in)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Register() error = %v, want *apperror.AppError", err)
	}
	if appErr.Field != "passwordVerify" {
		t.Errorf("Field = %q, want %q", appErr.Field, "passwordVerify")
	}
	if appErr.Message != "Please enter the same password twice." {
		t.Errorf("Message = %q", appErr.Message)
	}
}
