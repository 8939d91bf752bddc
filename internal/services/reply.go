package services

import (
	"context"
	"strings"

	types "github.com/yungbote/threadbot-backend/internal/domain"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

// ChatModel completes an ordered conversation into a single reply text.
type ChatModel interface {
	Complete(ctx context.Context, turns []types.Turn) (string, error)
}

// ReplyBuilder produces the bot's reply for one inbound turn of a thread.
type ReplyBuilder interface {
	BuildReply(ctx context.Context, key types.ThreadKey, userText string) (string, error)
}

const minContextMessages = 4

type replyService struct {
	model      ChatModel
	memory     ConversationMemory
	prompts    Prompts
	maxContext int
	log        *logger.Logger
}

func NewReplyService(model ChatModel, memory ConversationMemory, prompts Prompts, maxContext int, log *logger.Logger) ReplyBuilder {
	if maxContext < minContextMessages {
		maxContext = minContextMessages
	}
	return &replyService{
		model:      model,
		memory:     memory,
		prompts:    prompts,
		maxContext: maxContext,
		log:        log.With("service", "ReplyService"),
	}
}

// BuildReply loads the thread's recency window, records the inbound turn,
// asks the model for a reply, records it, and lazily refreshes the thread
// summary once the window is observed full. Storage failures on this path
// are fatal to the event; a model failure degrades to the placeholder text.
func (s *replyService) BuildReply(ctx context.Context, key types.ThreadKey, userText string) (string, error) {
	history, err := s.memory.LoadRecent(ctx, key, s.maxContext)
	if err != nil {
		return "", err
	}
	summary, err := s.memory.GetSummary(ctx, key)
	if err != nil {
		return "", err
	}

	// The inbound turn is committed before the model call; it is not part
	// of the loaded window, so the model input carries it exactly once.
	if err := s.memory.Append(ctx, key, types.UserTurn(userText)); err != nil {
		return "", err
	}

	input := make([]types.Turn, 0, len(history)+3)
	input = append(input, types.SystemTurn(s.prompts.System))
	if strings.TrimSpace(summary) != "" {
		input = append(input, types.SystemTurn("Thread summary so far: "+summary))
	}
	input = append(input, history...)
	input = append(input, types.UserTurn(userText))

	replyText, err := s.model.Complete(ctx, input)
	if err != nil {
		s.log.Warn("model call failed, using placeholder reply",
			"chat_id", key.ChatID, "thread_id", key.ThreadID, "error", err)
		replyText = s.prompts.Placeholder
	}

	if err := s.memory.Append(ctx, key, types.AssistantTurn(replyText)); err != nil {
		return "", err
	}

	// Lazy summarization: only when the window was already full before this
	// turn, so context about to fall out of the window is compressed first.
	if len(history) >= s.maxContext {
		s.summarize(ctx, key, history)
	}

	return strings.TrimSpace(replyText), nil
}

// summarize issues the secondary model call and upserts its output. All
// failures here are absorbed: the primary reply already succeeded.
func (s *replyService) summarize(ctx context.Context, key types.ThreadKey, history []types.Turn) {
	input := make([]types.Turn, 0, len(history)+1)
	input = append(input, types.SystemTurn(s.prompts.Summarize))
	input = append(input, history...)

	text, err := s.model.Complete(ctx, input)
	if err != nil {
		s.log.Warn("summary model call failed",
			"chat_id", key.ChatID, "thread_id", key.ThreadID, "error", err)
		return
	}
	if err := s.memory.UpsertSummary(ctx, key, strings.TrimSpace(text)); err != nil {
		s.log.Warn("summary upsert failed",
			"chat_id", key.ChatID, "thread_id", key.ThreadID, "error", err)
	}
}
