// Package event maps raw MAX webhook payloads onto canonical bot events.
//
// The platform delivers updates as one JSON object per webhook call with a
// discriminating update_type field. Each known family has its own parser;
// anything else is a parse error that the caller logs and drops.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnknownUpdateType = errors.New("unknown update type")
	ErrMissingChat       = errors.New("update has no chat id")
	ErrMissingUser       = errors.New("update has no user id")
	ErrEmptyCallback     = errors.New("callback has no payload")
)

// Sender carries the profile fields the bot persists for a user
type Sender struct {
	FirstName string
	LastName  string
	Username  string
}

// Event is one canonical inbound event. Exactly one of the three
// concrete types below is produced per webhook payload.
type Event interface {
	eventChat() int64
}

// TextMessage is a plain text message from a user
type TextMessage struct {
	ChatID int64
	UserID string
	Sender Sender
	Text   string
}

// ButtonPress is an inline-keyboard callback carrying a structured payload
type ButtonPress struct {
	ChatID     int64
	UserID     string
	CallbackID string
	Payload    string
}

// LifecycleKind distinguishes bot_started from bot_stopped
type LifecycleKind string

const (
	Started LifecycleKind = "started"
	Stopped LifecycleKind = "stopped"
)

// Lifecycle is a bot_started/bot_stopped chat event
type Lifecycle struct {
	ChatID int64
	UserID string
	Kind   LifecycleKind
}

func (e TextMessage) eventChat() int64 { return e.ChatID }
func (e ButtonPress) eventChat() int64 { return e.ChatID }
func (e Lifecycle) eventChat() int64   { return e.ChatID }

// Wire shapes of the MAX Bot API webhook updates.

type wireUser struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type wireRecipient struct {
	ChatID int64 `json:"chat_id"`
}

type wireBody struct {
	MID  string `json:"mid"`
	Seq  int64  `json:"seq"`
	Text string `json:"text"`
}

type wireMessage struct {
	Sender    *wireUser      `json:"sender"`
	Recipient *wireRecipient `json:"recipient"`
	Body      *wireBody      `json:"body"`
}

type wireCallback struct {
	CallbackID string    `json:"callback_id"`
	Payload    string    `json:"payload"`
	User       *wireUser `json:"user"`
}

type wireUpdate struct {
	UpdateType string        `json:"update_type"`
	Message    *wireMessage  `json:"message"`
	Callback   *wireCallback `json:"callback"`
	ChatID     int64         `json:"chat_id"`
	User       *wireUser     `json:"user"`
}

// Parse converts one raw webhook payload into a canonical event.
// It never panics; malformed input yields an error for the caller to log.
func Parse(raw []byte) (Event, error) {
	var u wireUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("malformed update: %w", err)
	}

	switch u.UpdateType {
	case "message_created":
		return parseMessage(u.Message)
	case "message_callback":
		return parseCallback(&u)
	case "bot_started":
		return parseLifecycle(&u, Started)
	case "bot_stopped":
		return parseLifecycle(&u, Stopped)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownUpdateType, u.UpdateType)
	}
}

func parseMessage(m *wireMessage) (Event, error) {
	if m == nil || m.Recipient == nil || m.Recipient.ChatID == 0 {
		return nil, ErrMissingChat
	}
	if m.Sender == nil || m.Sender.UserID == 0 {
		return nil, ErrMissingUser
	}

	var text string
	if m.Body != nil {
		text = m.Body.Text
	}

	return TextMessage{
		ChatID: m.Recipient.ChatID,
		UserID: strconv.FormatInt(m.Sender.UserID, 10),
		Sender: Sender{
			FirstName: m.Sender.FirstName,
			LastName:  m.Sender.LastName,
			Username:  m.Sender.Username,
		},
		Text: text,
	}, nil
}

func parseCallback(u *wireUpdate) (Event, error) {
	cb := u.Callback
	if cb == nil || cb.Payload == "" {
		return nil, ErrEmptyCallback
	}
	if cb.User == nil || cb.User.UserID == 0 {
		return nil, ErrMissingUser
	}

	// The chat id rides on the message the button was attached to.
	if u.Message == nil || u.Message.Recipient == nil || u.Message.Recipient.ChatID == 0 {
		return nil, ErrMissingChat
	}

	return ButtonPress{
		ChatID:     u.Message.Recipient.ChatID,
		UserID:     strconv.FormatInt(cb.User.UserID, 10),
		CallbackID: cb.CallbackID,
		Payload:    cb.Payload,
	}, nil
}

func parseLifecycle(u *wireUpdate, kind LifecycleKind) (Event, error) {
	if u.ChatID == 0 {
		return nil, ErrMissingChat
	}
	if u.User == nil || u.User.UserID == 0 {
		return nil, ErrMissingUser
	}

	return Lifecycle{
		ChatID: u.ChatID,
		UserID: strconv.FormatInt(u.User.UserID, 10),
		Kind:   kind,
	}, nil
}
