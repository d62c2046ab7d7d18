package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/ent0n29/remindbot/internal/dialog"
	"github.com/ent0n29/remindbot/internal/policy"
	"github.com/ent0n29/remindbot/internal/protocol"
	"github.com/ent0n29/remindbot/internal/scheduler"
	"github.com/ent0n29/remindbot/internal/tasks"
	"github.com/ent0n29/remindbot/internal/texts"
)

const (
	pickerWidth = 6
	dateLayout  = "02.01.2006"
)

func (b *Bot) apply(ctx context.Context, userID string, eff dialog.Effect) error {
	switch e := eff.(type) {
	case dialog.Prompt:
		return b.prompt(ctx, userID, e)
	case dialog.Notice:
		return b.notice(ctx, userID, e.Kind)
	case dialog.Commit:
		return b.commit(ctx, userID, e)
	case dialog.Delete:
		return b.deleteTask(ctx, userID, e.ID)
	default:
		return fmt.Errorf("unsupported effect %T", eff)
	}
}

func (b *Bot) prompt(ctx context.Context, userID string, p dialog.Prompt) error {
	text := b.texts.Prompt(string(p.Kind))
	switch p.Kind {
	case dialog.PromptMethod:
		return b.send(ctx, userID, text, b.methodMenu(), nil)
	case dialog.PromptCalendar:
		return b.send(ctx, userID, text, nil, b.picker.Open(b.now()))
	case dialog.PromptHour:
		text = texts.Fill(text, "date", p.Date.In(b.loc).Format(dateLayout))
		return b.send(ctx, userID, text, nil, hourPicker())
	case dialog.PromptMinute:
		text = texts.Fill(text,
			"date", p.Date.In(b.loc).Format(dateLayout),
			"hour", fmt.Sprintf("%02d", p.Hour),
		)
		return b.send(ctx, userID, text, nil, minutePicker())
	default:
		return b.send(ctx, userID, text, b.cancelMenu(), nil)
	}
}

func (b *Bot) notice(ctx context.Context, userID string, kind dialog.NoticeKind) error {
	var reply *protocol.ReplyKeyboard
	if kind == dialog.NoticeCancelled {
		reply = b.mainMenu()
	}
	return b.send(ctx, userID, b.texts.Notice(string(kind)), reply, nil)
}

func (b *Bot) commit(ctx context.Context, userID string, c dialog.Commit) error {
	task := b.registry.Append(userID, c.Text, c.DueAt)
	b.scheduler.Schedule(tasks.JobID(userID, task.ID), task.DueAt, scheduler.Payload{
		UserID: userID,
		TaskID: task.ID,
		Text:   task.Text,
	}, b.deliverReminder)
	b.metrics.ObserveTaskEvent("created")

	log.Printf("bot: task added user=%s id=%d active=%d due=%s text=%q", userID, task.ID, b.registry.Count(userID), b.formatTime(task.DueAt), policy.LogText(task.Text))

	text := texts.Fill(b.texts.Results.Added,
		"text", task.Text,
		"due", b.formatTime(task.DueAt),
	)
	return b.send(ctx, userID, text, b.mainMenu(), nil)
}

// deleteTask removes a task and its pending reminder. A user who never added
// a task is told the list is empty; once tasks existed, unknown ids are
// reported as not found.
func (b *Bot) deleteTask(ctx context.Context, userID string, id int) error {
	if !b.registry.Known(userID) {
		b.metrics.ObserveTaskEvent("empty")
		return b.send(ctx, userID, b.texts.Results.DeleteEmpty, b.mainMenu(), nil)
	}
	tmpl := b.texts.Results.NotFound
	if b.removeTask(userID, id) {
		tmpl = b.texts.Results.Deleted
	}
	return b.send(ctx, userID, texts.Fill(tmpl, "id", strconv.Itoa(id)), b.mainMenu(), nil)
}

func (b *Bot) removeTask(userID string, id int) bool {
	if !b.registry.Delete(userID, id) {
		b.metrics.ObserveTaskEvent("not_found")
		return false
	}
	b.scheduler.Cancel(tasks.JobID(userID, id))
	b.metrics.ObserveTaskEvent("deleted")
	log.Printf("bot: task deleted user=%s id=%d", userID, id)
	return true
}

// list sends one message per active task, or the empty-list notice.
func (b *Bot) list(ctx context.Context, userID string) error {
	items := b.registry.List(userID)
	if len(items) == 0 {
		return b.send(ctx, userID, b.texts.Results.EmptyList, nil, nil)
	}
	for _, task := range items {
		text := texts.Fill(b.texts.Results.ListItem,
			"id", strconv.Itoa(task.ID),
			"text", task.Text,
			"created", b.formatTime(task.CreatedAt),
			"due", b.formatTime(task.DueAt),
		)
		if err := b.send(ctx, userID, text, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) methodMenu() *protocol.ReplyKeyboard {
	return &protocol.ReplyKeyboard{
		Rows: [][]protocol.Button{
			{{Text: b.texts.Methods.Calendar}},
			{{Text: b.texts.Methods.Manual}},
			{{Text: b.texts.Menu.Cancel}},
		},
		OneTime: true,
	}
}

func (b *Bot) cancelMenu() *protocol.ReplyKeyboard {
	return &protocol.ReplyKeyboard{
		Rows: [][]protocol.Button{{{Text: b.texts.Menu.Cancel}}},
	}
}

func hourPicker() *protocol.InlineKeyboard {
	buttons := make([]protocol.Button, 0, 24)
	for h := 0; h < 24; h++ {
		v := fmt.Sprintf("%02d", h)
		buttons = append(buttons, protocol.Button{Text: v, Data: dataHour + v})
	}
	return &protocol.InlineKeyboard{Rows: protocol.Grid(buttons, pickerWidth)}
}

func minutePicker() *protocol.InlineKeyboard {
	buttons := make([]protocol.Button, 0, 60/dialog.MinuteStep)
	for m := 0; m < 60; m += dialog.MinuteStep {
		v := fmt.Sprintf("%02d", m)
		buttons = append(buttons, protocol.Button{Text: v, Data: dataMinute + v})
	}
	return &protocol.InlineKeyboard{Rows: protocol.Grid(buttons, pickerWidth)}
}
