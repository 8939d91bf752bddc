package services

import (
	"context"
	"fmt"

	chatrepo "github.com/yungbote/threadbot-backend/internal/data/repos/chat"
	types "github.com/yungbote/threadbot-backend/internal/domain"
	"github.com/yungbote/threadbot-backend/internal/pkg/dbctx"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

// ConversationMemory is the durable per-thread store of turns and rolling
// summaries. Implementations must keep operations on different thread keys
// independent and must represent "no history"/"no summary" as empty values,
// never as errors.
type ConversationMemory interface {
	Append(ctx context.Context, key types.ThreadKey, turn types.Turn) error
	// LoadRecent returns at most maxItems turns, oldest first.
	LoadRecent(ctx context.Context, key types.ThreadKey, maxItems int) ([]types.Turn, error)
	UpsertSummary(ctx context.Context, key types.ThreadKey, text string) error
	// GetSummary returns "" when the thread has no summary.
	GetSummary(ctx context.Context, key types.ThreadKey) (string, error)
}

type memoryService struct {
	messages  chatrepo.ChatMessageRepo
	summaries chatrepo.ThreadSummaryRepo
	log       *logger.Logger
}

func NewMemoryService(messages chatrepo.ChatMessageRepo, summaries chatrepo.ThreadSummaryRepo, log *logger.Logger) ConversationMemory {
	return &memoryService{
		messages:  messages,
		summaries: summaries,
		log:       log.With("service", "MemoryService"),
	}
}

func (s *memoryService) Append(ctx context.Context, key types.ThreadKey, turn types.Turn) error {
	row := types.NewMessage(key, turn)
	if err := s.messages.Append(dbctx.New(ctx), row); err != nil {
		return fmt.Errorf("%w: append: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *memoryService) LoadRecent(ctx context.Context, key types.ThreadKey, maxItems int) ([]types.Turn, error) {
	rows, err := s.messages.ListRecent(dbctx.New(ctx), key, maxItems)
	if err != nil {
		return nil, fmt.Errorf("%w: load recent: %v", ErrStorageUnavailable, err)
	}
	turns := make([]types.Turn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, row.Turn())
	}
	return turns, nil
}

func (s *memoryService) UpsertSummary(ctx context.Context, key types.ThreadKey, text string) error {
	if err := s.summaries.Upsert(dbctx.New(ctx), key, text); err != nil {
		return fmt.Errorf("%w: upsert summary: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *memoryService) GetSummary(ctx context.Context, key types.ThreadKey) (string, error) {
	text, err := s.summaries.Get(dbctx.New(ctx), key)
	if err != nil {
		return "", fmt.Errorf("%w: get summary: %v", ErrStorageUnavailable, err)
	}
	return text, nil
}
