package telegram

// The types below are the subset of the Bot API the bot consumes.
// See https://core.telegram.org/bots/api for field semantics.

// Update is an incoming update delivered to the webhook.
type Update struct {
	ID            int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// ChatID returns the chat the update belongs to, or 0 if it carries none.
func (u *Update) ChatID() int64 {
	switch {
	case u.Message != nil:
		return u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return u.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// Message is a chat message.
type Message struct {
	ID    int64       `json:"message_id"`
	From  *User       `json:"from,omitempty"`
	Chat  Chat        `json:"chat"`
	Text  string      `json:"text,omitempty"`
	Photo []PhotoSize `json:"photo,omitempty"`
}

// User is a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat is a conversation the bot participates in.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// CallbackQuery is an inline keyboard button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// PhotoSize is one available size of an uploaded photo. Telegram sends sizes
// in ascending order; the last one is the largest.
type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// InlineKeyboardMarkup is an inline keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is a single button of an inline keyboard.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InputMediaPhoto is one photo of a media group. Only the first item of a
// group may carry a caption.
type InputMediaPhoto struct {
	Type    string `json:"type"` // always "photo"
	Media   string `json:"media"`
	Caption string `json:"caption,omitempty"`
}

// WebhookInfo describes the current webhook registration.
type WebhookInfo struct {
	URL                  string `json:"url"`
	HasCustomCertificate bool   `json:"has_custom_certificate"`
	PendingUpdateCount   int    `json:"pending_update_count"`
	LastErrorDate        int64  `json:"last_error_date,omitempty"`
	LastErrorMessage     string `json:"last_error_message,omitempty"`
}
