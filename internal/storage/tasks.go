package storage

import (
	"context"
	"fmt"

	"life-tracker/internal/models"
)

// CreateTask inserts t and fills in its ID.
func (db *DB) CreateTask(ctx context.Context, t *models.Task) error {
	err := db.queryRow(ctx,
		"INSERT INTO tasks (content, is_completed, user_id) VALUES (?, ?, ?) RETURNING id",
		t.Content, t.IsCompleted, t.UserID,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a single task by ID.
func (db *DB) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	row := db.queryRow(ctx,
		"SELECT id, content, is_completed, user_id FROM tasks WHERE id = ?",
		id,
	)

	var t models.Task
	if err := row.Scan(&t.ID, &t.Content, &t.IsCompleted, &t.UserID); err != nil {
		return nil, notFound(err, "Task")
	}
	return &t, nil
}

// ListTasksByUser retrieves every task owned by userID.
func (db *DB) ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	rows, err := db.query(ctx,
		"SELECT id, content, is_completed, user_id FROM tasks WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Content, &t.IsCompleted, &t.UserID); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// SetTaskCompleted overwrites the completion flag of a task.
func (db *DB) SetTaskCompleted(ctx context.Context, id int64, completed bool) error {
	res, err := db.exec(ctx, "UPDATE tasks SET is_completed = ? WHERE id = ?", completed, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "Task")
}

// DeleteTask removes a task by ID.
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	res, err := db.exec(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "Task")
}
