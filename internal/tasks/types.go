package tasks

import (
	"fmt"
	"time"
)

// Task is a single reminder registered by a user.
type Task struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	DueAt     time.Time `json:"due_at"`
}

// JobID is the scheduler key of the reminder that belongs to a task.
func JobID(userID string, taskID int) string {
	return fmt.Sprintf("reminder:%s:%d", userID, taskID)
}

type userTasks struct {
	items  []Task
	lastID int
}
