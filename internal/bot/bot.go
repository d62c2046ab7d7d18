// Package bot routes user input to the task-capture dialog, executes the
// resulting effects and delivers fired reminders.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ent0n29/remindbot/internal/calendar"
	"github.com/ent0n29/remindbot/internal/dialog"
	"github.com/ent0n29/remindbot/internal/observability"
	"github.com/ent0n29/remindbot/internal/protocol"
	"github.com/ent0n29/remindbot/internal/scheduler"
	"github.com/ent0n29/remindbot/internal/session"
	"github.com/ent0n29/remindbot/internal/tasks"
	"github.com/ent0n29/remindbot/internal/texts"
)

var (
	ErrMissingSender    = errors.New("bot sender is required")
	ErrMissingScheduler = errors.New("bot scheduler is required")
)

// Sender delivers outbound messages to a user's chat.
type Sender interface {
	Send(ctx context.Context, msg protocol.BotMessage) error
	EditMarkup(ctx context.Context, edit protocol.BotEditMarkup) error
}

// Scheduler is the subset of *scheduler.Scheduler the bot drives.
type Scheduler interface {
	Schedule(id string, fireAt time.Time, p scheduler.Payload, fn scheduler.Func)
	Cancel(id string) bool
}

type Config struct {
	Location *time.Location
	Texts    *texts.Catalog
	Now      func() time.Time
}

type Deps struct {
	Sessions  *session.Manager
	Registry  *tasks.Registry
	Scheduler Scheduler
	Sender    Sender
	Metrics   *observability.Metrics
}

type Bot struct {
	loc       *time.Location
	now       func() time.Time
	texts     *texts.Catalog
	machine   *dialog.Machine
	picker    *calendar.Picker
	sessions  *session.Manager
	registry  *tasks.Registry
	scheduler Scheduler
	sender    Sender
	metrics   *observability.Metrics

	triggers map[string]trigger

	mu    sync.Mutex
	users map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func New(cfg Config, deps Deps) (*Bot, error) {
	if deps.Sender == nil {
		return nil, ErrMissingSender
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Texts == nil {
		catalog, err := texts.Default()
		if err != nil {
			return nil, err
		}
		cfg.Texts = catalog
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewManager()
	}
	if deps.Registry == nil {
		deps.Registry = tasks.NewRegistry(cfg.Now)
	}
	if deps.Scheduler == nil {
		return nil, ErrMissingScheduler
	}

	t := cfg.Texts
	b := &Bot{
		loc:   cfg.Location,
		now:   cfg.Now,
		texts: t,
		machine: dialog.NewMachine(cfg.Location, map[dialog.Method][]string{
			dialog.MethodCalendar: {t.Methods.Calendar},
			dialog.MethodManual:   {t.Methods.Manual},
		}),
		picker:    calendar.New(cfg.Location, t.Calendar.Weekdays, t.Calendar.Months),
		sessions:  deps.Sessions,
		registry:  deps.Registry,
		scheduler: deps.Scheduler,
		sender:    deps.Sender,
		metrics:   deps.Metrics,
		triggers:  buildTriggers(t),
		users:     make(map[string]*userLock),
	}
	return b, nil
}

// Registry exposes the task registry for read-only listings.
func (b *Bot) Registry() *tasks.Registry {
	return b.registry
}

// lockUser serializes event handling for one user. The lock entry is
// dropped once no event for that user holds or waits on it.
func (b *Bot) lockUser(userID string) func() {
	b.mu.Lock()
	l, ok := b.users[userID]
	if !ok {
		l = &userLock{}
		b.users[userID] = l
	}
	l.refs++
	b.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		b.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(b.users, userID)
		}
		b.mu.Unlock()
	}
}

func (b *Bot) send(ctx context.Context, userID, text string, reply *protocol.ReplyKeyboard, inline *protocol.InlineKeyboard) error {
	return b.sender.Send(ctx, protocol.BotMessage{
		Type:           protocol.TypeBotMessage,
		UserID:         userID,
		MessageID:      ulid.Make().String(),
		Text:           text,
		ReplyKeyboard:  reply,
		InlineKeyboard: inline,
	})
}

func (b *Bot) editMarkup(ctx context.Context, userID, messageID string, kb *protocol.InlineKeyboard) error {
	if strings.TrimSpace(messageID) == "" {
		return nil
	}
	return b.sender.EditMarkup(ctx, protocol.BotEditMarkup{
		Type:           protocol.TypeBotEditMarkup,
		UserID:         userID,
		MessageID:      messageID,
		InlineKeyboard: kb,
	})
}

// mainMenu is the persistent add/delete/list keyboard.
func (b *Bot) mainMenu() *protocol.ReplyKeyboard {
	m := b.texts.Menu
	return &protocol.ReplyKeyboard{
		Rows: [][]protocol.Button{
			{{Text: m.Add}, {Text: m.Delete}},
			{{Text: m.List}},
		},
		Persistent:  true,
		Placeholder: m.Placeholder,
	}
}

func (b *Bot) formatTime(t time.Time) string {
	return dialog.FormatDateTime(t, b.loc)
}
