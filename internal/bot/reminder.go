package bot

import (
	"context"
	"log"
	"strconv"

	"github.com/ent0n29/remindbot/internal/dialog"
	"github.com/ent0n29/remindbot/internal/protocol"
	"github.com/ent0n29/remindbot/internal/scheduler"
	"github.com/ent0n29/remindbot/internal/texts"
)

// deliverReminder is the scheduler callback for every committed task.
func (b *Bot) deliverReminder(ctx context.Context, p scheduler.Payload) error {
	if _, ok := b.registry.Get(p.UserID, p.TaskID); !ok {
		log.Printf("bot: skip reminder user=%s id=%d: task no longer exists", p.UserID, p.TaskID)
		b.metrics.ObserveTaskEvent("skipped")
		return nil
	}
	kb := &protocol.InlineKeyboard{Rows: [][]protocol.Button{{
		{Text: b.texts.Reminder.DeleteButton, Data: dataDelete + strconv.Itoa(p.TaskID)},
	}}}
	b.metrics.ObserveTaskEvent("reminded")
	return b.send(ctx, p.UserID, texts.Fill(b.texts.Reminder.Text, "text", p.Text), nil, kb)
}

// deleteFromReminder handles the delete button attached to a fired reminder.
// The button is removed whatever the outcome so it cannot be used twice.
func (b *Bot) deleteFromReminder(ctx context.Context, userID, messageID, raw string) error {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return b.notice(ctx, userID, dialog.NoticeStaleButton)
	}
	tmpl := b.texts.Results.NotFound
	if b.removeTask(userID, id) {
		tmpl = b.texts.Results.Deleted
	}
	if err := b.editMarkup(ctx, userID, messageID, nil); err != nil {
		return err
	}
	return b.send(ctx, userID, texts.Fill(tmpl, "id", strconv.Itoa(id)), nil, nil)
}
