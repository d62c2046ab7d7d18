package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ent0n29/remindbot/internal/calendar"
	"github.com/ent0n29/remindbot/internal/dialog"
	"github.com/ent0n29/remindbot/internal/observability"
	"github.com/ent0n29/remindbot/internal/texts"
)

var ErrMissingUser = errors.New("user id is required")

// Callback data prefixes for inline buttons.
const (
	dataMethod = "method:"
	dataHour   = "hour:"
	dataMinute = "minute:"
	dataDelete = "del:"
)

type trigger int

const (
	triggerAdd trigger = iota + 1
	triggerDelete
	triggerList
	triggerStart
	triggerCancel
)

func buildTriggers(t *texts.Catalog) map[string]trigger {
	out := map[string]trigger{
		"add":         triggerAdd,
		"add task":    triggerAdd,
		"delete":      triggerDelete,
		"delete task": triggerDelete,
		"list":        triggerList,
		"list tasks":  triggerList,
		"start":       triggerStart,
		"/start":      triggerStart,
		"cancel":      triggerCancel,
		"/cancel":     triggerCancel,
	}
	labels := map[string]trigger{
		t.Menu.Add:    triggerAdd,
		t.Menu.Delete: triggerDelete,
		t.Menu.List:   triggerList,
		t.Menu.Cancel: triggerCancel,
	}
	for label, trig := range labels {
		if key := normalize(label); key != "" {
			out[key] = trig
		}
	}
	return out
}

// HandleText routes a typed message or reply-keyboard tap.
func (b *Bot) HandleText(ctx context.Context, userID, text string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingUser
	}
	unlock := b.lockUser(userID)
	defer unlock()
	defer b.observeLatency(observability.StageHandleText, time.Now())

	st := b.sessions.Dialog(userID)
	trig, matched := b.triggers[normalize(text)]
	if matched && trig == triggerCancel {
		return b.dispatch(ctx, userID, "", st, dialog.Event{Kind: dialog.EventCancel})
	}
	if dialog.TakesText(st.Stage) {
		return b.dispatch(ctx, userID, "", st, dialog.Event{Kind: dialog.EventText, Text: text})
	}

	switch {
	case !matched:
	case trig == triggerStart:
		return b.start(ctx, userID, st)
	case trig == triggerAdd:
		return b.dispatch(ctx, userID, "", st, dialog.Event{Kind: dialog.EventAdd})
	case trig == triggerDelete:
		return b.dispatch(ctx, userID, "", st, dialog.Event{Kind: dialog.EventDelete})
	case trig == triggerList:
		return b.list(ctx, userID)
	}
	// Idle answers with the menu fallback; picker stages ask for a tap.
	return b.dispatch(ctx, userID, "", st, dialog.Event{Kind: dialog.EventText, Text: text})
}

// HandleCallback routes a tap on an inline button attached to messageID.
func (b *Bot) HandleCallback(ctx context.Context, userID, messageID, data string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingUser
	}
	unlock := b.lockUser(userID)
	defer unlock()
	defer b.observeLatency(observability.StageHandleCallback, time.Now())

	st := b.sessions.Dialog(userID)
	switch {
	case strings.HasPrefix(data, dataDelete):
		return b.deleteFromReminder(ctx, userID, messageID, strings.TrimPrefix(data, dataDelete))
	case strings.HasPrefix(data, dataMethod):
		method := dialog.Method(strings.TrimPrefix(data, dataMethod))
		return b.dispatch(ctx, userID, messageID, st, dialog.Event{Kind: dialog.EventMethod, Method: method})
	case strings.HasPrefix(data, dataHour):
		return b.dispatchNumber(ctx, userID, messageID, st, dialog.EventHour, strings.TrimPrefix(data, dataHour))
	case strings.HasPrefix(data, dataMinute):
		return b.dispatchNumber(ctx, userID, messageID, st, dialog.EventMinute, strings.TrimPrefix(data, dataMinute))
	case calendar.IsCallback(data):
		return b.handleCalendar(ctx, userID, messageID, st, data)
	default:
		log.Printf("bot: unknown callback user=%s data=%q", userID, data)
		return b.notice(ctx, userID, dialog.NoticeStaleButton)
	}
}

func (b *Bot) dispatchNumber(ctx context.Context, userID, messageID string, st dialog.State, kind dialog.EventKind, raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return b.notice(ctx, userID, dialog.NoticeStaleButton)
	}
	return b.dispatch(ctx, userID, messageID, st, dialog.Event{Kind: kind, Value: v})
}

func (b *Bot) handleCalendar(ctx context.Context, userID, messageID string, st dialog.State, data string) error {
	res, err := b.picker.Handle(data)
	if err != nil {
		log.Printf("bot: calendar callback user=%s: %v", userID, err)
		return b.notice(ctx, userID, dialog.NoticeStaleButton)
	}
	switch {
	case res.Selected:
		return b.dispatch(ctx, userID, messageID, st, dialog.Event{Kind: dialog.EventDate, Date: res.Date})
	case res.Keyboard != nil:
		if st.Stage != dialog.StageAwaitingCalendarDate {
			return b.notice(ctx, userID, dialog.NoticeStaleButton)
		}
		return b.editMarkup(ctx, userID, messageID, res.Keyboard)
	default:
		return nil
	}
}

// dispatch runs one event through the dialog machine, persists the new state
// and executes the effects. A callback that moves the dialog forward clears
// the keyboard of the message that was tapped.
func (b *Bot) dispatch(ctx context.Context, userID, messageID string, st dialog.State, ev dialog.Event) error {
	ev.Now = b.now().In(b.loc)
	next, effects := b.machine.Transition(st, ev)
	if next != st {
		b.sessions.Save(userID, next)
		b.metrics.ObserveTransition(stageLabel(st), stageLabel(next))
		if messageID != "" && next.Stage != st.Stage {
			if err := b.editMarkup(ctx, userID, messageID, nil); err != nil {
				return err
			}
		}
	}
	for _, eff := range effects {
		if err := b.apply(ctx, userID, eff); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) start(ctx context.Context, userID string, st dialog.State) error {
	if !st.Idle() {
		b.sessions.Reset(userID)
		b.metrics.ObserveTransition(stageLabel(st), string(dialog.StageIdle))
	}
	return b.send(ctx, userID, b.texts.Welcome, b.mainMenu(), nil)
}

func (b *Bot) observeLatency(stage string, started time.Time) {
	b.metrics.ObserveLatency(stage, time.Since(started))
}

func stageLabel(st dialog.State) string {
	if st.Stage == "" {
		return string(dialog.StageIdle)
	}
	return string(st.Stage)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
