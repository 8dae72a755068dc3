package api

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dobroplatform/dobro-max-bot/internal/bot"
	"github.com/dobroplatform/dobro-max-bot/internal/event"
	"github.com/dobroplatform/dobro-max-bot/internal/ws"
	"github.com/gin-gonic/gin"
)

// maxWebhookBody caps how much of an update we are willing to read
const maxWebhookBody = 1 << 20

// WebhookHandler receives MAX platform updates
type WebhookHandler struct {
	engine        *bot.Engine
	feed          *ws.Hub
	token         string
	handleTimeout time.Duration
}

// NewWebhookHandler creates the webhook handler. feed may be nil.
func NewWebhookHandler(engine *bot.Engine, feed *ws.Hub, token string) *WebhookHandler {
	return &WebhookHandler{
		engine:        engine,
		feed:          feed,
		token:         token,
		handleTimeout: 30 * time.Second,
	}
}

// Handle acknowledges the update immediately and processes it in the
// background, so the platform's retry timeout never depends on handling
// latency. Malformed updates are logged and acknowledged anyway: a bad
// payload must not make the platform retry it forever.
func (h *WebhookHandler) Handle(c *gin.Context) {
	if c.Param("token") != h.token {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Printf("webhook: failed to read body: %v", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	go h.process(body)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *WebhookHandler) process(body []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("webhook: panic while handling update: %v", r)
		}
	}()

	ev, err := event.Parse(body)
	if err != nil {
		// Fail-open: unknown and malformed updates are dropped.
		log.Printf("webhook: dropping update: %v", err)
		return
	}

	h.publish(ev)

	ctx, cancel := context.WithTimeout(context.Background(), h.handleTimeout)
	defer cancel()
	h.engine.HandleEvent(ctx, ev)
}

func (h *WebhookHandler) publish(ev event.Event) {
	if h.feed == nil {
		return
	}

	switch ev := ev.(type) {
	case event.TextMessage:
		h.feed.Publish(ws.FeedEvent{Kind: "message", UserID: ev.UserID, ChatID: ev.ChatID, Detail: ev.Text})
	case event.ButtonPress:
		h.feed.Publish(ws.FeedEvent{Kind: "callback", UserID: ev.UserID, ChatID: ev.ChatID, Detail: ev.Payload})
	case event.Lifecycle:
		h.feed.Publish(ws.FeedEvent{Kind: "lifecycle", UserID: ev.UserID, ChatID: ev.ChatID, Detail: string(ev.Kind)})
	}
}
