// Package auth covers credential storage, session tokens and the sign-up
// and sign-in flows. Handlers depend on Service and SessionManager; the
// user table itself lives behind UserStore.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartinvoice/internal/core"
	applog "smartinvoice/internal/log"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so sign-in failures do not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	ErrEmailTaken      = errors.New("email already registered")
	ErrEmailRequired   = errors.New("email is required")
	ErrPasswordTooWeak = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// UserStore persists accounts. GetUserByEmail returns the stored bcrypt
// hash alongside the profile; it must return core.ErrRecordNotFound for
// unknown emails.
type UserStore interface {
	CreateUser(ctx context.Context, user core.UserProfile, passwordHash string) (core.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (core.UserProfile, string, error)
	GetUserByID(ctx context.Context, id string) (core.UserProfile, error)
}

type Service struct {
	store  UserStore
	logger *applog.Logger
}

func NewService(store UserStore, logger *applog.Logger) *Service {
	return &Service{store: store, logger: logger.WithComponent(applog.ComponentAuth)}
}

// SignUp registers a new account and returns its profile. The email is
// lowercased so lookups are case-insensitive.
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (core.UserProfile, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return core.UserProfile{}, ErrEmailRequired
	}
	if len(password) < MinPasswordLength {
		return core.UserProfile{}, ErrPasswordTooWeak
	}

	if _, _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return core.UserProfile{}, ErrEmailTaken
	} else if !errors.Is(err, core.ErrRecordNotFound) {
		return core.UserProfile{}, fmt.Errorf("checking existing account: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.UserProfile{}, err
	}

	user, err := s.store.CreateUser(ctx, core.UserProfile{Email: email, FullName: strings.TrimSpace(fullName)}, hash)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("creating account: %w", err)
	}

	s.logger.InfoContext(ctx, "Account created",
		applog.FieldOperation, applog.OpSignUp,
		applog.FieldUserID, user.ID)
	return user, nil
}

// SignIn checks credentials and returns the matching profile.
func (s *Service) SignIn(ctx context.Context, email, password string) (core.UserProfile, error) {
	email = normalizeEmail(email)
	user, hash, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			return core.UserProfile{}, ErrInvalidCredentials
		}
		return core.UserProfile{}, fmt.Errorf("looking up account: %w", err)
	}
	if !CheckPassword(hash, password) {
		return core.UserProfile{}, ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "Sign-in succeeded",
		applog.FieldOperation, applog.OpSignIn,
		applog.FieldUserID, user.ID)
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
