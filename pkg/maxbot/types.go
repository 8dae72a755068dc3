package maxbot

// Wire types for the MAX Bot API (platform-api.max.ru).
// The integration contract is fixed: one endpoint per operation,
// inline keyboards ride as a single attachment of type inline_keyboard.

// BotInfo describes the bot account, returned by GET /me
type BotInfo struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// WireButton is one key in an inline keyboard.
// Type is "callback" for payload buttons and "message" for quick replies.
type WireButton struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Payload string `json:"payload,omitempty"`
}

// KeyboardPayload wraps the button matrix
type KeyboardPayload struct {
	Buttons [][]WireButton `json:"buttons"`
}

// Attachment is a message attachment; only inline keyboards are used here
type Attachment struct {
	Type    string          `json:"type"`
	Payload KeyboardPayload `json:"payload"`
}

// MessageBody is the request body for sending and editing messages
type MessageBody struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	Format      string       `json:"format,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// SentMessage is the platform's acknowledgment of a send
type SentMessage struct {
	Message struct {
		Body struct {
			MID string `json:"mid"`
			Seq int64  `json:"seq"`
		} `json:"body"`
	} `json:"message"`
}

// CallbackAnswer acknowledges a button press, optionally with a toast
type CallbackAnswer struct {
	CallbackID   string `json:"callback_id"`
	Notification string `json:"notification,omitempty"`
}
