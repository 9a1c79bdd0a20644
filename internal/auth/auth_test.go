package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartinvoice/internal/core"
	applog "smartinvoice/internal/log"
)

type fakeUserStore struct {
	users  map[string]core.UserProfile
	hashes map[string]string
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]core.UserProfile{}, hashes: map[string]string{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user core.UserProfile, hash string) (core.UserProfile, error) {
	f.nextID++
	user.ID = time.Now().Format("20060102") + "-" + string(rune('a'+f.nextID))
	f.users[user.Email] = user
	f.hashes[user.Email] = hash
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (core.UserProfile, string, error) {
	user, ok := f.users[email]
	if !ok {
		return core.UserProfile{}, "", core.ErrRecordNotFound
	}
	return user, f.hashes[email], nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (core.UserProfile, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.UserProfile{}, core.ErrRecordNotFound
}

func testLogger() *applog.Logger {
	return applog.New(applog.DefaultConfig())
}

func TestSignUpThenSignIn(t *testing.T) {
	svc := NewService(newFakeUserStore(), testLogger())

	user, err := svc.SignUp(context.Background(), " Alice@Example.COM ", "hunter22", "Alice Doe")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized alice@example.com", user.Email)
	}

	got, err := svc.SignIn(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ID = %q, want %q", got.ID, user.ID)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := NewService(newFakeUserStore(), testLogger())
	if _, err := svc.SignUp(context.Background(), "bob@example.com", "secret-pw", "Bob"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := svc.SignIn(context.Background(), "bob@example.com", "wrong-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.SignIn(context.Background(), "nobody@example.com", "secret-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := NewService(newFakeUserStore(), testLogger())

	if _, err := svc.SignUp(context.Background(), "", "longenough", ""); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("empty email err = %v, want ErrEmailRequired", err)
	}
	if _, err := svc.SignUp(context.Background(), "c@example.com", "tiny", ""); !errors.Is(err, ErrPasswordTooWeak) {
		t.Errorf("short password err = %v, want ErrPasswordTooWeak", err)
	}

	if _, err := svc.SignUp(context.Background(), "dup@example.com", "secret-pw", ""); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	if _, err := svc.SignUp(context.Background(), "dup@example.com", "secret-pw", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate err = %v, want ErrEmailTaken", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)
	user := core.UserProfile{ID: "u-1", Email: "alice@example.com", FullName: "Alice"}

	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != user {
		t.Errorf("Verify = %+v, want %+v", got, user)
	}
}

func TestSessionExpiry(t *testing.T) {
	m := NewSessionManager("test-secret", time.Minute)
	issued := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(core.UserProfile{ID: "u-1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := m.Verify(token); !errors.Is(err, ErrNoSession) {
		t.Errorf("expired token err = %v, want ErrNoSession", err)
	}
}

func TestSessionRejectsTamperedSecret(t *testing.T) {
	issuer := NewSessionManager("secret-a", time.Hour)
	verifier := NewSessionManager("secret-b", time.Hour)

	token, err := issuer.Issue(core.UserProfile{ID: "u-1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrNoSession) {
		t.Errorf("cross-secret err = %v, want ErrNoSession", err)
	}
}
