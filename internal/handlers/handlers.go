package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"life-tracker/internal/apperr"
	"life-tracker/internal/models"
	"life-tracker/internal/storage"
	"life-tracker/internal/upstream"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// DefaultSessionTTL is used when Options.SessionTTL is zero (30 days).
	DefaultSessionTTL = 30 * 24 * time.Hour

	maxRequestBody = 1 << 20
)

// Store is the persistence the handlers need. *storage.DB satisfies it.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	ValidateSession(ctx context.Context, token string) (*storage.SessionInfo, error)
	RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error

	CreateExpense(ctx context.Context, e *models.Expense) error
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	CategoryTotalsByMonth(ctx context.Context, userID int64, year, month int) ([]storage.CategoryTotal, error)

	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error)
	SetTaskCompleted(ctx context.Context, id int64, completed bool) error
	DeleteTask(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
}

var _ Store = (*storage.DB)(nil)

// Generator produces text through the generative-text upstream.
type Generator interface {
	Generate(ctx context.Context, in *upstream.GenerateRequest) ([]byte, error)
}

// WeatherProvider fetches current conditions for a city.
type WeatherProvider interface {
	Current(ctx context.Context, city string) ([]byte, error)
}

// Options are the per-deployment knobs of the HTTP layer.
type Options struct {
	SessionTTL         time.Duration
	SecureCookie       bool
	StaticFile         string
	WeatherRequireAuth bool
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db      Store
	gemini  Generator
	weather WeatherProvider
	log     *zap.Logger
	opts    Options
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db Store, gemini Generator, weather WeatherProvider, log *zap.Logger, opts Options) *Handlers {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{db: db, gemini: gemini, weather: weather, log: log, opts: opts}
}

// UserFromContext returns the user resolved by LoadSession, or nil.
func UserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// LoadSession resolves the session cookie into a user on the request
// context. It never rejects a request; handlers decide what anonymous
// callers get. Sessions past the halfway point of their lifetime are
// renewed.
func (h *Handlers) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		info, err := h.db.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				h.clearSessionCookie(w)
			} else {
				h.log.Error("validate session", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		now := time.Now()
		if info.ExpiresAt.Sub(now) < h.opts.SessionTTL/2 {
			if err := h.db.RenewSession(r.Context(), cookie.Value, now.Add(h.opts.SessionTTL)); err != nil {
				h.log.Warn("renew session", zap.Error(err))
			} else {
				h.setSessionCookie(w, cookie.Value)
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, info.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous callers with 401 and message.
func RequireUser(message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: message})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw relays an upstream JSON body unchanged.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps err to its status and a JSON error body. Unexpected
// errors are logged; their details never reach the client.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	switch {
	case errors.Is(err, apperr.ErrUpstream), errors.Is(err, apperr.ErrTimeout):
		h.log.Warn("upstream call failed", zap.String("path", r.URL.Path), zap.Error(err))
	case status >= http.StatusInternalServerError:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: apperr.Message(err)})
}

// decodeJSON reads a single JSON value from the request body. An empty body
// yields a validation error that also matches io.EOF.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("Request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperr.Wrap(apperr.ErrValidation, "Request body is required", err)
		}
		return apperr.Validation("Invalid JSON body")
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid id")
	}
	return id, nil
}
