package tasks

import (
	"strings"
	"sync"
	"time"
)

// Registry owns every user's task list. Ids are assigned from a per-user
// counter and are never handed out twice, even after deletions.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*userTasks
	now    func() time.Time
}

func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		byUser: make(map[string]*userTasks),
		now:    now,
	}
}

// Append stores a new task and returns it. Callers validate text and due time.
func (r *Registry) Append(userID, text string, dueAt time.Time) Task {
	userID = strings.TrimSpace(userID)
	createdAt := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	ut, ok := r.byUser[userID]
	if !ok {
		ut = &userTasks{}
		r.byUser[userID] = ut
	}
	ut.lastID++
	task := Task{
		ID:        ut.lastID,
		UserID:    userID,
		Text:      text,
		CreatedAt: createdAt,
		DueAt:     dueAt,
	}
	ut.items = append(ut.items, task)
	return task
}

// List returns the user's tasks in creation order.
func (r *Registry) List(userID string) []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ut, ok := r.byUser[strings.TrimSpace(userID)]
	if !ok || len(ut.items) == 0 {
		return nil
	}
	out := make([]Task, len(ut.items))
	copy(out, ut.items)
	return out
}

func (r *Registry) Get(userID string, id int) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ut, ok := r.byUser[strings.TrimSpace(userID)]
	if !ok {
		return Task{}, false
	}
	for _, t := range ut.items {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Known reports whether the user has ever added a task, including ones that
// were deleted since.
func (r *Registry) Known(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[strings.TrimSpace(userID)]
	return ok
}

func (r *Registry) Count(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ut, ok := r.byUser[strings.TrimSpace(userID)]
	if !ok {
		return 0
	}
	return len(ut.items)
}

// Delete removes the task with the given id and reports whether it existed.
func (r *Registry) Delete(userID string, id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ut, ok := r.byUser[strings.TrimSpace(userID)]
	if !ok || len(ut.items) == 0 {
		return false
	}
	for i, t := range ut.items {
		if t.ID != id {
			continue
		}
		ut.items = append(ut.items[:i:i], ut.items[i+1:]...)
		return true
	}
	return false
}
