// Package dialog implements the task-capture conversation as a pure state
// machine. Transition never performs I/O; it returns the next state and the
// effects the caller must carry out.
package dialog

import "time"

type Stage string

const (
	StageIdle                   Stage = "idle"
	StageAwaitingText           Stage = "awaiting_text"
	StageChoosingInputMethod    Stage = "choosing_input_method"
	StageAwaitingCalendarDate   Stage = "awaiting_calendar_date"
	StageAwaitingHour           Stage = "awaiting_hour"
	StageAwaitingMinute         Stage = "awaiting_minute"
	StageAwaitingManualDateTime Stage = "awaiting_manual_datetime"
	StageAwaitingDeleteID       Stage = "awaiting_delete_id"
)

// Scratch holds the fields collected so far by an add flow.
type Scratch struct {
	TaskText string    `json:"task_text,omitempty"`
	TaskDate time.Time `json:"task_date,omitempty"`
	Hour     int       `json:"hour,omitempty"`
}

type State struct {
	Stage   Stage   `json:"stage"`
	Scratch Scratch `json:"scratch"`
}

// Idle reports whether no dialog is in progress. The zero State is idle.
func (s State) Idle() bool {
	return s.Stage == "" || s.Stage == StageIdle
}

func (s State) normalized() State {
	if s.Stage == "" {
		s.Stage = StageIdle
	}
	return s
}

type Method string

const (
	MethodCalendar Method = "calendar"
	MethodManual   Method = "manual"
)

type EventKind string

const (
	EventAdd    EventKind = "add"
	EventDelete EventKind = "delete"
	EventCancel EventKind = "cancel"
	EventText   EventKind = "text"
	EventMethod EventKind = "method"
	EventDate   EventKind = "date"
	EventHour   EventKind = "hour"
	EventMinute EventKind = "minute"
)

// Event is one normalized user input. Now is the instant the input arrived.
type Event struct {
	Kind   EventKind
	Text   string
	Method Method
	Date   time.Time
	Value  int
	Now    time.Time
}

// Effect is an instruction produced by a transition.
type Effect interface {
	isEffect()
}

type PromptKind string

const (
	PromptTaskText       PromptKind = "task_text"
	PromptMethod         PromptKind = "method"
	PromptCalendar       PromptKind = "calendar"
	PromptHour           PromptKind = "hour"
	PromptMinute         PromptKind = "minute"
	PromptManualDateTime PromptKind = "manual_datetime"
	PromptDeleteID       PromptKind = "delete_id"
)

// Prompt asks the user for the next input. Date and Hour carry the values
// collected so far for pickers that display them.
type Prompt struct {
	Kind PromptKind
	Date time.Time
	Hour int
}

type NoticeKind string

const (
	NoticeEmptyText       NoticeKind = "empty_text"
	NoticeChooseOption    NoticeKind = "choose_option"
	NoticeBadDateTime     NoticeKind = "bad_datetime"
	NoticePastDue         NoticeKind = "past_due"
	NoticeBadDeleteID     NoticeKind = "bad_delete_id"
	NoticeStaleButton     NoticeKind = "stale_button"
	NoticeCancelled       NoticeKind = "cancelled"
	NoticeNothingToCancel NoticeKind = "nothing_to_cancel"
	NoticeUseMenu         NoticeKind = "use_menu"
)

// Notice reports a recoverable problem or an informational outcome.
type Notice struct {
	Kind NoticeKind
}

// Commit asks the caller to register the task and schedule its reminder.
type Commit struct {
	Text  string
	DueAt time.Time
}

// Delete asks the caller to remove the task with the given id.
type Delete struct {
	ID int
}

func (Prompt) isEffect() {}
func (Notice) isEffect() {}
func (Commit) isEffect() {}
func (Delete) isEffect() {}
