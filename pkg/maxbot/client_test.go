package maxbot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/me" {
			t.Errorf("got %s %s, want GET /me", r.Method, r.URL.Path)
		}
		// MAX takes the raw token, no Bearer prefix
		if got := r.Header.Get("Authorization"); got != "test-token" {
			t.Errorf("Authorization = %q, want raw token", got)
		}
		json.NewEncoder(w).Encode(BotInfo{UserID: 1, FirstName: "Добро", Username: "dobro_bot"})
	}))
	defer server.Close()

	client := NewClient(Config{Token: "test-token", BaseURL: server.URL})

	info, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if info.Username != "dobro_bot" {
		t.Fatalf("info = %+v", info)
	}
}

func TestSendMessageWithKeyboard(t *testing.T) {
	var got MessageBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("got %s %s, want POST /messages", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{Token: "test-token", BaseURL: server.URL})

	buttons := [][]WireButton{
		{{Type: "callback", Text: "Подробнее", Payload: "view_request:7"}},
	}
	err := client.SendMessageWithKeyboard(context.Background(), 100, "Заявка", buttons)
	if err != nil {
		t.Fatalf("SendMessageWithKeyboard: %v", err)
	}

	if got.ChatID != 100 || got.Text != "Заявка" {
		t.Fatalf("body = %+v", got)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Type != "inline_keyboard" {
		t.Fatalf("attachments = %+v", got.Attachments)
	}
	if got.Attachments[0].Payload.Buttons[0][0].Payload != "view_request:7" {
		t.Fatalf("buttons = %+v", got.Attachments[0].Payload.Buttons)
	}
}

func TestAnswerCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/answers" {
			t.Errorf("got %s %s, want POST /answers", r.Method, r.URL.Path)
		}
		var answer CallbackAnswer
		json.NewDecoder(r.Body).Decode(&answer)
		if answer.CallbackID != "cb-1" {
			t.Errorf("callback_id = %q", answer.CallbackID)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{Token: "test-token", BaseURL: server.URL})

	if err := client.AnswerCallback(context.Background(), "cb-1"); err != nil {
		t.Fatalf("AnswerCallback: %v", err)
	}
}

func TestEditMessageText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/messages/m.42" {
			t.Errorf("got %s %s, want PATCH /messages/m.42", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{Token: "test-token", BaseURL: server.URL})

	if err := client.EditMessageText(context.Background(), 100, "m.42", "Обновлено"); err != nil {
		t.Fatalf("EditMessageText: %v", err)
	}
}

func TestAPIErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"verify.token","message":"Invalid access_token"}`))
	}))
	defer server.Close()

	client := NewClient(Config{Token: "bad-token", BaseURL: server.URL})

	err := client.SendMessage(context.Background(), 100, "hi")
	if err == nil {
		t.Fatal("expected error for 403")
	}
	for _, want := range []string{"403", "Invalid access_token"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}
