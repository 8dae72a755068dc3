package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dobroplatform/dobro-max-bot/internal/bot"
	"github.com/dobroplatform/dobro-max-bot/internal/db"
	"github.com/dobroplatform/dobro-max-bot/internal/keyboard"
	"github.com/gin-gonic/gin"
)

// noopStore satisfies bot.Store with an always-idle user
type noopStore struct{}

func (noopStore) UpsertUser(ctx context.Context, user *db.User) error { return nil }
func (noopStore) GetSession(ctx context.Context, userID string) (*db.Session, error) {
	return nil, db.ErrNotFound
}
func (noopStore) SetSession(ctx context.Context, s *db.Session) error     { return nil }
func (noopStore) ClearSession(ctx context.Context, userID string) error   { return nil }
func (noopStore) CreateRequest(ctx context.Context, req *db.Request) error { return nil }
func (noopStore) GetRequest(ctx context.Context, id int64) (*db.Request, error) {
	return nil, db.ErrNotFound
}
func (noopStore) GetRequests(ctx context.Context, filter db.RequestFilter) ([]db.Request, error) {
	return nil, nil
}
func (noopStore) CountRequests(ctx context.Context) (int, error) { return 0, nil }
func (noopStore) GetUserRequests(ctx context.Context, userID string) ([]db.Request, error) {
	return nil, nil
}
func (noopStore) CreateResponse(ctx context.Context, resp *db.Response) error { return nil }
func (noopStore) GetUserResponses(ctx context.Context, userID string) ([]db.Response, error) {
	return nil, nil
}
func (noopStore) IsOwnerVerified(ctx context.Context, ownerID string) (bool, error) {
	return false, nil
}

// signalMessenger closes done once any reply goes out
type signalMessenger struct {
	done chan struct{}
}

func (m *signalMessenger) signal() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

func (m *signalMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	m.signal()
	return nil
}

func (m *signalMessenger) SendKeyboard(ctx context.Context, chatID int64, text string, kb keyboard.Keyboard) error {
	m.signal()
	return nil
}

func (m *signalMessenger) SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb keyboard.Keyboard) error {
	m.signal()
	return nil
}

func (m *signalMessenger) AnswerCallback(ctx context.Context, callbackID string) error {
	return nil
}

func newWebhookRouter(messenger *signalMessenger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := bot.NewEngine(noopStore{}, messenger)
	handler := NewWebhookHandler(engine, nil, "secret-token")

	router := gin.New()
	router.POST("/webhook/:token", handler.Handle)
	return router
}

func TestWebhookAcksValidUpdate(t *testing.T) {
	messenger := &signalMessenger{done: make(chan struct{})}
	router := newWebhookRouter(messenger)

	body := `{
		"update_type": "message_created",
		"message": {
			"sender": {"user_id": 42, "first_name": "Мария"},
			"recipient": {"chat_id": 100},
			"body": {"text": "/start"}
		}
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/secret-token", strings.NewReader(body))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"ok":true`)) {
		t.Fatalf("body = %s", w.Body.String())
	}

	// Processing happens in the background after the ack
	select {
	case <-messenger.done:
	case <-time.After(2 * time.Second):
		t.Fatal("update never reached the engine")
	}
}

func TestWebhookAcksMalformedUpdate(t *testing.T) {
	messenger := &signalMessenger{done: make(chan struct{})}
	router := newWebhookRouter(messenger)

	tests := []struct {
		name string
		body string
	}{
		{"broken json", `{not json`},
		{"unknown update type", `{"update_type": "chat_title_changed"}`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/webhook/secret-token", strings.NewReader(tt.body))
			router.ServeHTTP(w, req)

			// A bad payload must still be acknowledged or the platform
			// retries it forever.
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
		})
	}
}

func TestWebhookRejectsWrongToken(t *testing.T) {
	messenger := &signalMessenger{done: make(chan struct{})}
	router := newWebhookRouter(messenger)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/guessed-token", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
