package chat

import "time"

// ThreadKey identifies one conversational thread inside a group chat.
// ThreadID is the platform's sub-thread id when present, otherwise an id
// synthesized from the root of the reply chain. Equality is by value.
type ThreadKey struct {
	ChatID   int64
	ThreadID int64
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one model-facing conversation entry. Rows loaded from storage and
// freshly composed prompt entries both reduce to this shape.
type Turn struct {
	Role    Role
	Content string
	Ts      time.Time
}

func SystemTurn(text string) Turn {
	return Turn{Role: RoleSystem, Content: text, Ts: time.Now().UTC()}
}

func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text, Ts: time.Now().UTC()}
}

func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Content: text, Ts: time.Now().UTC()}
}
