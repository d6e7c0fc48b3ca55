package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"life-tracker/internal/apperr"
	"life-tracker/internal/models"
)

const maxTaskContentLen = 500

// ListTasks returns the caller's tasks in creation order. Anonymous callers
// get 401 with an empty array.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, []models.Task{})
		return
	}

	tasks, err := h.db.ListTasksByUser(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTask adds an incomplete task for the caller.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var in struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		h.writeError(w, r, apperr.Validation("Content is required"))
		return
	}
	if utf8.RuneCountInString(content) > maxTaskContentLen {
		h.writeError(w, r, apperr.Validation("Content is too long"))
		return
	}

	task := &models.Task{Content: content, UserID: user.ID}
	if err := h.db.CreateTask(r.Context(), task); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask sets the completion flag of one of the caller's tasks. An
// omitted is_completed, or no body at all, leaves the task unchanged.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	var in struct {
		IsCompleted *bool `json:"is_completed"`
	}
	// an empty body is an empty update
	if err := decodeJSON(w, r, &in); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, err)
		return
	}

	if in.IsCompleted != nil {
		if err := h.db.SetTaskCompleted(r.Context(), task.ID, *in.IsCompleted); err != nil {
			h.writeError(w, r, err)
			return
		}
		task.IsCompleted = *in.IsCompleted
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask removes one of the caller's tasks.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteTask(r.Context(), task.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Task deleted"})
}

// ownedTask loads the {id} task and checks it belongs to the caller,
// writing the error response when it does not.
func (h *Handlers) ownedTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	user := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	task, err := h.db.GetTask(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if task.UserID != user.ID {
		h.writeError(w, r, apperr.New(apperr.ErrForbidden, "Forbidden"))
		return nil, false
	}
	return task, true
}
