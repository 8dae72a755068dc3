package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newFeedServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	router := gin.New()
	router.GET("/ws/feed", hub.HandleFeed)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return hub, server
}

func dialFeed(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestFeedDeliversPublishedEvents(t *testing.T) {
	hub, server := newFeedServer(t)
	conn := dialFeed(t, server)

	// Registration happens during the upgrade handshake; wait for it
	deadline := time.Now().Add(2 * time.Second)
	for hub.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("console never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(FeedEvent{Kind: "message", UserID: "42", ChatID: 100, Detail: "/start"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got FeedEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Kind != "message" || got.UserID != "42" || got.ChatID != 100 {
		t.Fatalf("event = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("publish must stamp events")
	}
}

func TestPublishWithoutConsumersDoesNotBlock(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(FeedEvent{Kind: "message"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no consumers")
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub, server := newFeedServer(t)
	dialFeed(t, server)

	deadline := time.Now().Add(2 * time.Second)
	for hub.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("console never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Never reading on the client side. Large frames jam the socket, the
	// write loop stalls, the send buffer fills, and the hub must cut the
	// consumer loose instead of stalling the webhook path.
	big := strings.Repeat("x", 1<<16)
	for i := 0; i < 300 && hub.count() != 0; i++ {
		hub.Publish(FeedEvent{Kind: "message", Detail: big})
	}

	deadline = time.Now().Add(2 * time.Second)
	for hub.count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow consumer was never dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
