package http

import (
	"errors"
	"log/slog"
	"net/http"

	"smartinvoice/internal/auth"
	"smartinvoice/internal/core"
)

type authPageData struct {
	Title string
	Error string
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Already signed in, go straight to the dashboard.
		if _, err := s.sessions.FromRequest(r); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, r, "login.html", authPageData{Title: "Sign in"})
	case http.MethodPost:
		s.handleSignIn(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	email := formValue(r, "email")
	password := r.Form.Get("password")

	user, err := s.authSvc.SignIn(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.authError(w, r, "Invalid login credentials")
			return
		}
		slog.ErrorContext(r.Context(), "Sign-in failed", "error", err)
		s.authError(w, r, "Something went wrong. Please try again.")
		return
	}

	s.startSession(w, r, user)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, err := s.sessions.FromRequest(r); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, r, "signup.html", authPageData{Title: "Create account"})
	case http.MethodPost:
		s.handleSignUpPost(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleSignUpPost(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	email := formValue(r, "email")
	password := r.Form.Get("password")
	fullName := formValue(r, "full_name")

	user, err := s.authSvc.SignUp(r.Context(), email, password, fullName)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken),
			errors.Is(err, auth.ErrEmailRequired),
			errors.Is(err, auth.ErrPasswordTooWeak):
			s.authError(w, r, err.Error())
		default:
			slog.ErrorContext(r.Context(), "Sign-up failed", "error", err)
			s.authError(w, r, "Something went wrong. Please try again.")
		}
		return
	}

	// New accounts are signed in immediately.
	s.startSession(w, r, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	s.sessions.ClearCookie(w)
	slog.InfoContext(r.Context(), "Signed out")

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// startSession issues the cookie and sends the client to the dashboard.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user core.UserProfile) {
	token, err := s.sessions.Issue(user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session issue failed", "error", err)
		s.authError(w, r, "Something went wrong. Please try again.")
		return
	}
	s.sessions.SetCookie(w, token)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authError renders the inline error box the login and signup forms target.
func (s *Server) authError(w http.ResponseWriter, r *http.Request, message string) {
	UnprocessableEntityError(message).
		TriggerErrorNotification(message).
		Write(w)
}
