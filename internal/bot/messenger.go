package bot

import (
	"context"
	"time"

	"github.com/dobroplatform/dobro-max-bot/internal/circuitbreaker"
	"github.com/dobroplatform/dobro-max-bot/internal/keyboard"
	"github.com/dobroplatform/dobro-max-bot/pkg/maxbot"
)

// MaxMessenger adapts the MAX API client to the engine's Messenger
// interface. Outbound sends run behind a circuit breaker: when the
// platform API keeps failing, sends fail fast until the reset timeout
// instead of stacking up timeouts on every event.
type MaxMessenger struct {
	client  *maxbot.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewMaxMessenger wraps a MAX client for the engine
func NewMaxMessenger(client *maxbot.Client) *MaxMessenger {
	return &MaxMessenger{
		client:  client,
		breaker: circuitbreaker.NewCircuitBreaker(5, 1*time.Minute),
	}
}

func (m *MaxMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	return m.breaker.Call(func() error {
		return m.client.SendMessage(ctx, chatID, text)
	})
}

func (m *MaxMessenger) SendKeyboard(ctx context.Context, chatID int64, text string, kb keyboard.Keyboard) error {
	return m.breaker.Call(func() error {
		return m.client.SendMessageWithKeyboard(ctx, chatID, text, toWire(kb, "callback"))
	})
}

func (m *MaxMessenger) SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb keyboard.Keyboard) error {
	return m.breaker.Call(func() error {
		return m.client.SendMessageWithReplyKeyboard(ctx, chatID, text, toWire(kb, "message"))
	})
}

func (m *MaxMessenger) AnswerCallback(ctx context.Context, callbackID string) error {
	return m.breaker.Call(func() error {
		return m.client.AnswerCallback(ctx, callbackID)
	})
}

func toWire(kb keyboard.Keyboard, buttonType string) [][]maxbot.WireButton {
	rows := make([][]maxbot.WireButton, 0, len(kb))
	for _, row := range kb {
		wireRow := make([]maxbot.WireButton, 0, len(row))
		for _, b := range row {
			wb := maxbot.WireButton{Type: buttonType, Text: b.Text}
			if buttonType == "callback" {
				wb.Payload = b.Payload
			}
			wireRow = append(wireRow, wb)
		}
		rows = append(rows, wireRow)
	}
	return rows
}
