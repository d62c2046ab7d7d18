package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/remindbot/internal/session"
	"github.com/ent0n29/remindbot/internal/tasks"
)

type taskView struct {
	tasks.Task
	// ReminderAt is set while the reminder job has not fired yet.
	ReminderAt *time.Time `json:"reminder_at,omitempty"`
}

type listTasksResponse struct {
	UserID string     `json:"user_id"`
	Tasks  []taskView `json:"tasks"`
}

type sessionResponse struct {
	Session     *session.Session `json:"session"`
	Connections int              `json:"connections"`
}

func (s *Server) handleListUserTasks(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "missing user id")
		return
	}
	if s.tasks == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "task registry not configured")
		return
	}
	items := s.tasks.List(userID)
	views := make([]taskView, 0, len(items))
	for _, task := range items {
		v := taskView{Task: task}
		if s.jobs != nil {
			if at, ok := s.jobs.FireAt(tasks.JobID(userID, task.ID)); ok {
				v.ReminderAt = &at
			}
		}
		views = append(views, v)
	}
	respondJSON(w, http.StatusOK, listTasksResponse{UserID: userID, Tasks: views})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "missing user id")
		return
	}
	if s.sessions == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "session store not configured")
		return
	}
	sess, err := s.sessions.Get(userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	resp := sessionResponse{Session: sess}
	if s.hub != nil {
		resp.Connections = s.hub.Connections(userID)
	}
	respondJSON(w, http.StatusOK, resp)
}
