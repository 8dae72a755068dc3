package maxbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Client talks to the MAX Bot API over HTTP
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the MAX client
type Config struct {
	Token   string
	BaseURL string        // Default: https://platform-api.max.ru
	Timeout time.Duration // Default: 10s
}

// NewClient creates a new MAX Bot API client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://platform-api.max.ru"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &Client{
		token:   config.Token,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// GetMe fetches the bot's own account info. Called once at startup as a
// capability check; a failure there is logged, not fatal.
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	var info BotInfo
	if err := c.do(ctx, http.MethodGet, "/me", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SendMessage sends a plain text message to a chat
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body := MessageBody{ChatID: chatID, Text: text}
	return c.do(ctx, http.MethodPost, "/messages", body, nil)
}

// SendMessageWithKeyboard sends text with inline callback buttons
func (c *Client) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, buttons [][]WireButton) error {
	body := MessageBody{
		ChatID: chatID,
		Text:   text,
		Format: "html",
		Attachments: []Attachment{{
			Type:    "inline_keyboard",
			Payload: KeyboardPayload{Buttons: buttons},
		}},
	}
	return c.do(ctx, http.MethodPost, "/messages", body, nil)
}

// SendMessageWithReplyKeyboard sends text with quick-reply buttons.
// MAX renders quick replies as message-type buttons on an inline keyboard.
func (c *Client) SendMessageWithReplyKeyboard(ctx context.Context, chatID int64, text string, buttons [][]WireButton) error {
	return c.SendMessageWithKeyboard(ctx, chatID, text, buttons)
}

// EditMessageText replaces the text of an already-sent message
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID string, text string) error {
	body := MessageBody{ChatID: chatID, Text: text}
	return c.do(ctx, http.MethodPatch, "/messages/"+messageID, body, nil)
}

// AnswerCallback acknowledges a button press so the client stops its spinner
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	body := CallbackAnswer{CallbackID: callbackID}
	return c.do(ctx, http.MethodPost, "/answers", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// MAX expects the raw token, without a Bearer prefix
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
