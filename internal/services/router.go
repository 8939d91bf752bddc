package services

import (
	"context"
	"strings"

	"github.com/yungbote/threadbot-backend/internal/clients/telegram"
	types "github.com/yungbote/threadbot-backend/internal/domain"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

// Outcome is the terminal state of routing one inbound update.
type Outcome string

const (
	OutcomeIgnored            Outcome = "ignored"
	OutcomeRepliedAutoForward Outcome = "replied_auto_forward"
	OutcomeRepliedToPerson    Outcome = "replied_to_person"
)

// MessageSender is the outbound messaging surface the router drives.
type MessageSender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
	// BotID is the bot's own account id, used to detect replies to the bot.
	BotID() int64
}

// EventRouter classifies one inbound update and drives reply production.
type EventRouter interface {
	Handle(ctx context.Context, update *telegram.Update) (Outcome, error)
}

type RouterConfig struct {
	// Empty set allows every group chat.
	AllowedChatIDs map[int64]struct{}
	// Chance of engaging with a passive person-authored message.
	ReplyProbability float64
	// Substitute prompt for auto-forwarded posts without text or caption.
	MediaFallbackPrompt string
}

type eventRouter struct {
	sender  MessageSender
	replies ReplyBuilder
	gate    ProbabilityGate
	cfg     RouterConfig
	log     *logger.Logger
}

func NewEventRouter(sender MessageSender, replies ReplyBuilder, gate ProbabilityGate, cfg RouterConfig, log *logger.Logger) EventRouter {
	return &eventRouter{
		sender:  sender,
		replies: replies,
		gate:    gate,
		cfg:     cfg,
		log:     log.With("service", "EventRouter"),
	}
}

// Handle routes one update. Policy rejections terminate as OutcomeIgnored
// without side effects; an error means storage or the outbound send failed
// after the update was accepted.
func (r *eventRouter) Handle(ctx context.Context, update *telegram.Update) (Outcome, error) {
	if update == nil || update.Message == nil {
		// Only message updates are handled; edited messages and channel
		// posts arrive via the webhook subscription but are not replied to.
		return OutcomeIgnored, nil
	}
	m := update.Message

	r.log.Debug("inbound message",
		"chat_id", m.Chat.ID, "chat_type", m.Chat.Type,
		"thread_id", m.MessageThreadID, "auto_forward", m.IsAutomaticForward,
		"from_bot", m.From != nil && m.From.IsBot, "text_len", len(m.Text)+len(m.Caption))

	if !m.IsGroupChat() {
		return OutcomeIgnored, nil
	}
	if len(r.cfg.AllowedChatIDs) > 0 {
		if _, ok := r.cfg.AllowedChatIDs[m.Chat.ID]; !ok {
			return OutcomeIgnored, nil
		}
	}

	key := deriveThreadKey(m)

	if m.IsAutomaticForward {
		return r.handleAutoForward(ctx, key, m)
	}
	return r.handlePerson(ctx, key, m)
}

// handleAutoForward always replies to relayed channel posts; posts without
// any text get the canned media prompt instead of being skipped.
func (r *eventRouter) handleAutoForward(ctx context.Context, key types.ThreadKey, m *telegram.Message) (Outcome, error) {
	text := m.Text
	if strings.TrimSpace(text) == "" {
		text = m.Caption
	}
	if strings.TrimSpace(text) == "" {
		text = r.cfg.MediaFallbackPrompt
	}

	reply, err := r.replies.BuildReply(ctx, key, text)
	if err != nil {
		return OutcomeIgnored, err
	}
	if err := r.send(ctx, m, reply); err != nil {
		return OutcomeIgnored, err
	}
	return OutcomeRepliedAutoForward, nil
}

// handlePerson gates passive person messages by probability and requires
// that the message replies to the bot's own prior message.
func (r *eventRouter) handlePerson(ctx context.Context, key types.ThreadKey, m *telegram.Message) (Outcome, error) {
	if m.From == nil || m.From.IsBot {
		return OutcomeIgnored, nil
	}

	userText := strings.TrimSpace(m.Text)
	if userText == "" {
		userText = strings.TrimSpace(m.Caption)
	}
	if userText == "" || strings.HasPrefix(userText, "/") || len([]rune(userText)) < 2 {
		return OutcomeIgnored, nil
	}

	if !r.gate.Hit(r.cfg.ReplyProbability) {
		return OutcomeIgnored, nil
	}

	isReplyToBot := m.ReplyToMessage != nil &&
		m.ReplyToMessage.From != nil &&
		m.ReplyToMessage.From.ID == r.sender.BotID()
	if !isReplyToBot {
		return OutcomeIgnored, nil
	}

	reply, err := r.replies.BuildReply(ctx, key, userText)
	if err != nil {
		return OutcomeIgnored, err
	}
	if err := r.send(ctx, m, reply); err != nil {
		return OutcomeIgnored, err
	}
	return OutcomeRepliedToPerson, nil
}

func (r *eventRouter) send(ctx context.Context, m *telegram.Message, text string) error {
	return r.sender.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:           m.Chat.ID,
		Text:             text,
		MessageThreadID:  m.MessageThreadID,
		ReplyToMessageID: m.MessageID,
	})
}

// deriveThreadKey always yields a key: the native sub-thread id when the
// platform provides one, otherwise the root of the reply chain, otherwise
// the message itself as a single-message thread.
func deriveThreadKey(m *telegram.Message) types.ThreadKey {
	threadID := m.MessageThreadID
	if threadID == 0 {
		if m.ReplyToMessage != nil {
			threadID = m.ReplyToMessage.MessageID
		} else {
			threadID = m.MessageID
		}
	}
	return types.ThreadKey{ChatID: m.Chat.ID, ThreadID: threadID}
}
