package handlers

import (
	"net/http"

	"life-tracker/internal/apperr"
	"life-tracker/internal/upstream"
)

// Generate forwards a Gemini-shaped payload upstream and relays the reply.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var in upstream.GenerateRequest
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := h.gemini.Generate(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// Weather relays current conditions for ?city=, defaulting upstream to
// New York. Open to anonymous callers unless the deployment requires a
// session.
func (h *Handlers) Weather(w http.ResponseWriter, r *http.Request) {
	if h.opts.WeatherRequireAuth && UserFromContext(r.Context()) == nil {
		h.writeError(w, r, apperr.New(apperr.ErrAuth, notLoggedIn))
		return
	}

	body, err := h.weather.Current(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}
