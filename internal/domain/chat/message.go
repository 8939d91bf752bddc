package chat

import (
	"time"

	"gorm.io/datatypes"
)

// ChatMessage is one appended turn of a thread. Rows are append-only: the
// auto-increment id doubles as a durable insertion-order tie-break when two
// turns share a timestamp.
type ChatMessage struct {
	ID       int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID   int64 `gorm:"not null;index:idx_chat_messages_thread_ts,priority:1" json:"chat_id"`
	ThreadID int64 `gorm:"not null;index:idx_chat_messages_thread_ts,priority:2" json:"thread_id"`

	Role    string `gorm:"type:text;not null" json:"role"`
	Content string `gorm:"type:text;not null" json:"content"`

	// Optional sender context (user id, username) for diagnostics.
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	Ts time.Time `gorm:"not null;index:idx_chat_messages_thread_ts,priority:3" json:"ts"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

func (m *ChatMessage) Turn() Turn {
	return Turn{Role: Role(m.Role), Content: m.Content, Ts: m.Ts}
}

// NewMessage builds a storable row from a turn.
func NewMessage(key ThreadKey, turn Turn) *ChatMessage {
	ts := turn.Ts
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &ChatMessage{
		ChatID:   key.ChatID,
		ThreadID: key.ThreadID,
		Role:     string(turn.Role),
		Content:  turn.Content,
		Ts:       ts,
	}
}
