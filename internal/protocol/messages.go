package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies chat payload variants.
type MessageType string

const (
	TypeUserText      MessageType = "user_text"
	TypeUserCallback  MessageType = "user_callback"
	TypeBotMessage    MessageType = "bot_message"
	TypeBotEditMarkup MessageType = "bot_edit_markup"
	TypeErrorEvent    MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserText is a typed message or a tap on a reply-keyboard button.
type UserText struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"user_id"`
	Text   string      `json:"text"`
}

// UserCallback is a tap on an inline button attached to a bot message.
type UserCallback struct {
	Type      MessageType `json:"type"`
	UserID    string      `json:"user_id"`
	MessageID string      `json:"message_id"`
	Data      string      `json:"data"`
}

type BotMessage struct {
	Type           MessageType     `json:"type"`
	UserID         string          `json:"user_id"`
	MessageID      string          `json:"message_id"`
	Text           string          `json:"text"`
	ReplyKeyboard  *ReplyKeyboard  `json:"reply_keyboard,omitempty"`
	InlineKeyboard *InlineKeyboard `json:"inline_keyboard,omitempty"`
}

// BotEditMarkup replaces the inline keyboard of an earlier message. A nil
// keyboard removes it.
type BotEditMarkup struct {
	Type           MessageType     `json:"type"`
	UserID         string          `json:"user_id"`
	MessageID      string          `json:"message_id"`
	InlineKeyboard *InlineKeyboard `json:"inline_keyboard,omitempty"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"user_id,omitempty"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeUserText:
		var msg UserText
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.UserID) == "" {
			return nil, errors.New("invalid user_text")
		}
		return msg, nil
	case TypeUserCallback:
		var msg UserCallback
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.UserID) == "" || msg.Data == "" {
			return nil, errors.New("invalid user_callback")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// ParseServerMessage decodes an outbound frame, as read by chat clients.
func ParseServerMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeBotMessage:
		var msg BotMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeBotEditMarkup:
		var msg BotEditMarkup
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeErrorEvent:
		var msg ErrorEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// TypeOf reports the message type of any protocol value.
func TypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case UserText:
		return m.Type, true
	case UserCallback:
		return m.Type, true
	case BotMessage:
		return m.Type, true
	case BotEditMarkup:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}

// UserOf reports the user a protocol value is addressed to or sent by.
func UserOf(v any) string {
	switch m := v.(type) {
	case UserText:
		return m.UserID
	case UserCallback:
		return m.UserID
	case BotMessage:
		return m.UserID
	case BotEditMarkup:
		return m.UserID
	case ErrorEvent:
		return m.UserID
	default:
		return ""
	}
}
