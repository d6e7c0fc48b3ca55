package handlers

import (
	"math"
	"net/http"
	"strings"
	"unicode/utf8"

	"life-tracker/internal/apperr"
	"life-tracker/internal/models"
)

const (
	maxDescriptionLen = 200
	maxCategoryLen    = 50
)

type expenseInput struct {
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
}

func (in *expenseInput) toModel(userID int64) (*models.Expense, error) {
	if in.Description == nil || in.Amount == nil || in.Category == nil {
		return nil, apperr.Validation("Description, amount and category are required")
	}
	description := strings.TrimSpace(*in.Description)
	category := strings.TrimSpace(*in.Category)
	if description == "" || category == "" {
		return nil, apperr.Validation("Description, amount and category are required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, apperr.Validation("Description is too long")
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return nil, apperr.Validation("Category is too long")
	}
	amount := *in.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, apperr.Validation("Amount must be a positive number")
	}
	return &models.Expense{
		Description: description,
		Amount:      amount,
		Category:    category,
		UserID:      userID,
	}, nil
}

// ListExpenses returns the caller's expenses, newest first. Anonymous
// callers get 401 with an empty array so list views can render as-is.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, []models.Expense{})
		return
	}

	expenses, err := h.db.ListExpensesByUser(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// CreateExpense records an expense for the caller.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var in expenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	expense, err := in.toModel(user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.db.CreateExpense(r.Context(), expense); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// DeleteExpense removes one of the caller's expenses.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	expense, err := h.db.GetExpense(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if expense.UserID != user.ID {
		h.writeError(w, r, apperr.New(apperr.ErrForbidden, "Forbidden"))
		return
	}

	if err := h.db.DeleteExpense(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Expense deleted"})
}
