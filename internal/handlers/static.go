package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Index serves the single-page front end.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	page, err := os.ReadFile(h.opts.StaticFile)
	if err != nil {
		h.log.Error("read static file", zap.String("file", h.opts.StaticFile), zap.Error(err))
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// Healthz reports whether the database answers.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
