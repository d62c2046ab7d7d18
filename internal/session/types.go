package session

import (
	"time"

	"github.com/ent0n29/remindbot/internal/dialog"
)

// Session is the per-user conversation record.
type Session struct {
	UserID         string       `json:"user_id"`
	Dialog         dialog.State `json:"dialog"`
	StartedAt      time.Time    `json:"started_at"`
	LastActivityAt time.Time    `json:"last_activity_at"`
}
