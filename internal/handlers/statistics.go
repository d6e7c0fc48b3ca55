package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"life-tracker/internal/apperr"
)

// StatsCategoryItem is one category's share of a month's spending.
type StatsCategoryItem struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MonthSummary is the spending breakdown for one calendar month.
type MonthSummary struct {
	Year       int                 `json:"year"`
	Month      int                 `json:"month"`
	MonthName  string              `json:"month_name"`
	Total      float64             `json:"total"`
	Categories []StatsCategoryItem `json:"categories"`
	PrevYear   int                 `json:"prev_year"`
	PrevMonth  int                 `json:"prev_month"`
	NextYear   int                 `json:"next_year"`
	NextMonth  int                 `json:"next_month"`
}

// ExpenseSummary returns the caller's per-category totals for ?year=&month=,
// defaulting to the current month (UTC).
func (h *Handlers) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1970 || y > 9999 {
			h.writeError(w, r, apperr.Validation("Invalid year"))
			return
		}
		year = y
	}
	if s := r.URL.Query().Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			h.writeError(w, r, apperr.Validation("Invalid month"))
			return
		}
		month = m
	}

	totals, err := h.db.CategoryTotalsByMonth(r.Context(), user.ID, year, month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var total float64
	for _, ct := range totals {
		total += ct.Total
	}

	items := make([]StatsCategoryItem, 0, len(totals))
	for _, ct := range totals {
		percentage := 0.0
		if total > 0 {
			percentage = math.Round(ct.Total/total*10000) / 100
		}
		items = append(items, StatsCategoryItem{
			Category:   ct.Category,
			Total:      ct.Total,
			Count:      ct.Count,
			Percentage: percentage,
		})
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)

	writeJSON(w, http.StatusOK, MonthSummary{
		Year:       year,
		Month:      month,
		MonthName:  first.Month().String(),
		Total:      total,
		Categories: items,
		PrevYear:   prev.Year(),
		PrevMonth:  int(prev.Month()),
		NextYear:   next.Year(),
		NextMonth:  int(next.Month()),
	})
}
