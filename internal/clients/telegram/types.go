package telegram

// Webhook payload types, limited to the fields the router consumes.

type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"edited_message,omitempty"`
	ChannelPost   *Message `json:"channel_post,omitempty"`
}

type Message struct {
	MessageID int64 `json:"message_id"`
	From      *User `json:"from,omitempty"`
	Chat      Chat  `json:"chat"`

	// Sub-thread (forum topic) id; 0 when the message is not in a topic.
	MessageThreadID int64 `json:"message_thread_id,omitempty"`

	ReplyToMessage *Message `json:"reply_to_message,omitempty"`

	Text    string `json:"text,omitempty"`
	Caption string `json:"caption,omitempty"`

	// True for channel posts relayed into the linked discussion group.
	IsAutomaticForward bool `json:"is_automatic_forward,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"` // private | group | supergroup | channel
	Title string `json:"title,omitempty"`
}

const (
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
)

// IsGroupChat reports whether the message comes from a multi-party context.
func (m *Message) IsGroupChat() bool {
	return m.Chat.Type == ChatTypeGroup || m.Chat.Type == ChatTypeSupergroup
}
