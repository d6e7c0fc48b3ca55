package models

// Task is a to-do item owned by a single user.
type Task struct {
	ID          int64  `json:"id"`
	Content     string `json:"content"`
	IsCompleted bool   `json:"is_completed"`
	UserID      int64  `json:"user_id"`
}
