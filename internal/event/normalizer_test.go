package event

import (
	"errors"
	"testing"
)

func TestParseMessageCreated(t *testing.T) {
	raw := []byte(`{
		"update_type": "message_created",
		"message": {
			"sender": {"user_id": 42, "first_name": "Мария", "last_name": "Иванова", "username": "maria"},
			"recipient": {"chat_id": 100},
			"body": {"mid": "m.1", "seq": 7, "text": "Привет"}
		}
	}`)

	ev, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	msg, ok := ev.(TextMessage)
	if !ok {
		t.Fatalf("expected TextMessage, got %T", ev)
	}
	if msg.ChatID != 100 || msg.UserID != "42" || msg.Text != "Привет" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Sender.FirstName != "Мария" || msg.Sender.Username != "maria" {
		t.Fatalf("sender = %+v", msg.Sender)
	}
}

func TestParseMessageWithoutBody(t *testing.T) {
	raw := []byte(`{
		"update_type": "message_created",
		"message": {
			"sender": {"user_id": 42},
			"recipient": {"chat_id": 100}
		}
	}`)

	ev, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg := ev.(TextMessage); msg.Text != "" {
		t.Fatalf("text = %q, want empty", msg.Text)
	}
}

func TestParseMessageCallback(t *testing.T) {
	raw := []byte(`{
		"update_type": "message_callback",
		"callback": {
			"callback_id": "cb-1",
			"payload": "view_request:7",
			"user": {"user_id": 42}
		},
		"message": {
			"recipient": {"chat_id": 100}
		}
	}`)

	ev, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	press, ok := ev.(ButtonPress)
	if !ok {
		t.Fatalf("expected ButtonPress, got %T", ev)
	}
	if press.ChatID != 100 || press.UserID != "42" ||
		press.CallbackID != "cb-1" || press.Payload != "view_request:7" {
		t.Fatalf("press = %+v", press)
	}
}

func TestParseLifecycle(t *testing.T) {
	tests := []struct {
		updateType string
		want       LifecycleKind
	}{
		{"bot_started", Started},
		{"bot_stopped", Stopped},
	}

	for _, tt := range tests {
		t.Run(tt.updateType, func(t *testing.T) {
			raw := []byte(`{
				"update_type": "` + tt.updateType + `",
				"chat_id": 100,
				"user": {"user_id": 42}
			}`)

			ev, err := Parse(raw)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			lc, ok := ev.(Lifecycle)
			if !ok {
				t.Fatalf("expected Lifecycle, got %T", ev)
			}
			if lc.Kind != tt.want || lc.ChatID != 100 || lc.UserID != "42" {
				t.Fatalf("lifecycle = %+v", lc)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{
			"unknown update type",
			`{"update_type": "chat_title_changed"}`,
			ErrUnknownUpdateType,
		},
		{
			"message without chat",
			`{"update_type": "message_created", "message": {"sender": {"user_id": 42}}}`,
			ErrMissingChat,
		},
		{
			"message without sender",
			`{"update_type": "message_created", "message": {"recipient": {"chat_id": 100}}}`,
			ErrMissingUser,
		},
		{
			"callback without payload",
			`{"update_type": "message_callback", "callback": {"callback_id": "cb-1", "user": {"user_id": 42}}}`,
			ErrEmptyCallback,
		},
		{
			"callback without user",
			`{"update_type": "message_callback", "callback": {"payload": "cancel"}, "message": {"recipient": {"chat_id": 100}}}`,
			ErrMissingUser,
		},
		{
			"callback without source message",
			`{"update_type": "message_callback", "callback": {"payload": "cancel", "user": {"user_id": 42}}}`,
			ErrMissingChat,
		},
		{
			"lifecycle without chat",
			`{"update_type": "bot_started", "user": {"user_id": 42}}`,
			ErrMissingChat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
