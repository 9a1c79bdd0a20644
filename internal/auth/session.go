package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"smartinvoice/internal/core"
)

// SessionCookieName carries the signed session token.
const SessionCookieName = "si_session"

// ErrNoSession means the request carries no usable session: no cookie, an
// expired token or a bad signature all look the same to callers.
var ErrNoSession = errors.New("no active session")

type sessionClaims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager signs and verifies session tokens and moves them in and
// out of the browser cookie.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token identifying user, valid for the configured TTL.
func (m *SessionManager) Issue(user core.UserProfile) (string, error) {
	now := m.now()
	claims := sessionClaims{
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify parses a signed token and returns the identity it carries.
func (m *SessionManager) Verify(tokenString string) (core.UserProfile, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return core.UserProfile{}, ErrNoSession
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" {
		return core.UserProfile{}, ErrNoSession
	}
	return core.UserProfile{ID: claims.Subject, Email: claims.Email, FullName: claims.FullName}, nil
}

// SetCookie installs the session cookie on the response.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest resolves the current user from the request cookie.
func (m *SessionManager) FromRequest(r *http.Request) (core.UserProfile, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return core.UserProfile{}, ErrNoSession
	}
	return m.Verify(cookie.Value)
}
