package web

import (
	"errors"
	"net/http"

	"absentee/internal/adapters/auth"
	"absentee/internal/adapters/http/middleware"
	"absentee/internal/application/orchestrators"
)

type loginView struct {
	// AskEmail is false for the shared-secret gate, where the email is optional.
	AskEmail bool
	Email    string
}

func (s *Server) loginView(email string) loginView {
	return loginView{AskEmail: s.deps.Checker.Mode() != auth.ModeSharedSecret, Email: email}
}

// handleLoginForm handles GET /login
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", "Sign in", s.loginView(""), "")
}

// handleLogin handles POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	p, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    email,
		Password: r.FormValue("password"),
	}, orchestrators.LoginDeps{Checker: s.deps.Checker})
	if err != nil {
		msg := auth.ErrInvalidCredentials.Error()
		if errors.Is(err, auth.ErrAccountLocked) {
			msg = err.Error()
		}
		s.render(w, r, http.StatusUnauthorized, "login.html", "Sign in", s.loginView(email), msg)
		return
	}

	sess, err := s.sessions.Create(p)
	if err != nil {
		internalError(w, err)
		return
	}
	s.sessions.SetCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout handles POST /logout. Any draft under review is discarded with the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		s.deps.Drafts.Delete(sess.Token)
		s.sessions.Delete(sess.Token)
	}
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
