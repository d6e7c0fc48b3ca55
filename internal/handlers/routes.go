package handlers

import (
	"net/http"

	"life-tracker/internal/apperr"
	"life-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	notLoggedIn   = "Not logged in"
	loginForAIUse = "Please log in to use AI features"
)

// NewRouter wires every route of the service.
func NewRouter(h *Handlers, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.WithRequestLogging(log))
	r.Use(chimw.Recoverer)

	r.Get("/", h.Index)
	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.LoadSession)

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(RequireUser(notLoggedIn)).Get("/me", h.Me)

		r.Get("/expenses", h.ListExpenses)
		r.With(RequireUser(notLoggedIn)).Post("/expenses", h.CreateExpense)
		r.With(RequireUser(notLoggedIn)).Get("/expenses/summary", h.ExpenseSummary)
		r.With(RequireUser(notLoggedIn)).Delete("/expenses/{id}", h.DeleteExpense)

		r.Get("/tasks", h.ListTasks)
		r.Group(func(r chi.Router) {
			r.Use(RequireUser(notLoggedIn))
			r.Post("/tasks", h.CreateTask)
			r.Put("/tasks/{id}", h.UpdateTask)
			r.Delete("/tasks/{id}", h.DeleteTask)
		})

		r.With(RequireUser(loginForAIUse)).Post("/generate", h.Generate)
		r.Get("/weather", h.Weather)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			h.writeError(w, r, apperr.New(apperr.ErrNotFound, "Not found"))
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		})
	})

	return r
}
