package chat

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/threadbot-backend/internal/domain"
	"github.com/yungbote/threadbot-backend/internal/pkg/dbctx"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

type ChatMessageRepo interface {
	Append(dbc dbctx.Context, row *types.ChatMessage) error
	// ListRecent returns the most recent limit messages of a thread in
	// chronological order (oldest first). Unknown threads yield an empty
	// slice, not an error.
	ListRecent(dbc dbctx.Context, key types.ThreadKey, limit int) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, log *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: log.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Append(dbc dbctx.Context, row *types.ChatMessage) error {
	if row == nil {
		return fmt.Errorf("missing message row")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(row).Error
}

func (r *chatMessageRepo) ListRecent(dbc dbctx.Context, key types.ThreadKey, limit int) ([]*types.ChatMessage, error) {
	if limit <= 0 {
		return []*types.ChatMessage{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ChatMessage
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChatMessage{}).
		Where("chat_id = ? AND thread_id = ?", key.ChatID, key.ThreadID).
		Order("ts DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	// Flip newest-first into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
