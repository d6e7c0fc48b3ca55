package storage

import (
	"context"
	"fmt"
	"time"

	"life-tracker/internal/models"
)

// CreateExpense inserts e, filling in its ID and, when unset, its creation time.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	err := db.queryRow(ctx,
		"INSERT INTO expenses (description, amount, category, created_at, user_id) VALUES (?, ?, ?, ?, ?) RETURNING id",
		e.Description, e.Amount, e.Category, e.CreatedAt, e.UserID,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves a single expense by ID.
func (db *DB) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	row := db.queryRow(ctx,
		"SELECT id, description, amount, category, created_at, user_id FROM expenses WHERE id = ?",
		id,
	)

	var e models.Expense
	if err := row.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.CreatedAt, &e.UserID); err != nil {
		return nil, notFound(err, "Expense")
	}
	return &e, nil
}

// ListExpensesByUser retrieves every expense owned by userID, most recent first.
func (db *DB) ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := db.query(ctx,
		"SELECT id, description, amount, category, created_at, user_id FROM expenses WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.CreatedAt, &e.UserID); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// DeleteExpense removes an expense by ID.
func (db *DB) DeleteExpense(ctx context.Context, id int64) error {
	res, err := db.exec(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "Expense")
}

// CategoryTotal is the spending of one category within a period.
type CategoryTotal struct {
	Category string
	Total    float64
	Count    int
}

// CategoryTotalsByMonth sums userID's expenses per category for the given
// calendar month (UTC), largest total first.
func (db *DB) CategoryTotalsByMonth(ctx context.Context, userID int64, year, month int) ([]CategoryTotal, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := db.query(ctx, `
		SELECT category, SUM(amount), COUNT(*)
		FROM expenses
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		GROUP BY category
		ORDER BY SUM(amount) DESC, category
	`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []CategoryTotal{}
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}
