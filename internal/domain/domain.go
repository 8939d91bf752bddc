package domain

import "github.com/yungbote/threadbot-backend/internal/domain/chat"

type ThreadKey = chat.ThreadKey
type Role = chat.Role
type Turn = chat.Turn
type ChatMessage = chat.ChatMessage
type ThreadSummary = chat.ThreadSummary

const (
	RoleSystem    = chat.RoleSystem
	RoleUser      = chat.RoleUser
	RoleAssistant = chat.RoleAssistant
)

var (
	NewMessage    = chat.NewMessage
	SystemTurn    = chat.SystemTurn
	UserTurn      = chat.UserTurn
	AssistantTurn = chat.AssistantTurn

	ErrStorageUnavailable = chat.ErrStorageUnavailable
	ErrModelUnavailable   = chat.ErrModelUnavailable
)
