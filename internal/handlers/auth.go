package handlers

import (
	"errors"
	"net/http"
	"time"

	"life-tracker/internal/apperr"
	"life-tracker/internal/auth"

	"go.uber.org/zap"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *credentials) validate() error {
	username, err := auth.ValidateCredentials(c.Username, c.Password)
	if err != nil {
		return err
	}
	c.Username = username
	return nil
}

// Register creates an account. It does not log the caller in.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.db.CreateUser(r.Context(), in.Username, hash); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Info("user registered", zap.String("username", in.Username))
	writeJSON(w, http.StatusCreated, messageBody{Message: "User registered successfully"})
}

// Login verifies credentials and starts a new session, replacing any
// session the caller already presented.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := in.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	invalid := apperr.New(apperr.ErrAuth, "Invalid username or password")
	user, err := h.db.GetUserByUsername(r.Context(), in.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = invalid
		}
		h.writeError(w, r, err)
		return
	}
	if !auth.CheckPassword(in.Password, user.PasswordHash) {
		h.writeError(w, r, invalid)
		return
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.db.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.log.Warn("delete previous session", zap.Error(err))
		}
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.db.CreateSession(r.Context(), token, user.ID, time.Now().Add(h.opts.SessionTTL)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, token)

	writeJSON(w, http.StatusOK, struct {
		Message  string `json:"message"`
		Username string `json:"username"`
	}{"Login successful", user.Username})
}

// Logout ends the caller's session. It succeeds without a session too.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.db.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.log.Warn("delete session", zap.Error(err))
		}
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageBody{Message: "Logged out successfully"})
}

// Me reports who is logged in.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, struct {
		Username string `json:"username"`
	}{user.Username})
}
