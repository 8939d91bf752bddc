package chat

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/threadbot-backend/internal/domain"
	"github.com/yungbote/threadbot-backend/internal/pkg/dbctx"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

type ThreadSummaryRepo interface {
	// Upsert replaces the thread's summary, last-write-wins.
	Upsert(dbc dbctx.Context, key types.ThreadKey, summary string) error
	// Get returns the summary text, or "" when the thread has none.
	Get(dbc dbctx.Context, key types.ThreadKey) (string, error)
}

type threadSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadSummaryRepo(db *gorm.DB, log *logger.Logger) ThreadSummaryRepo {
	return &threadSummaryRepo{db: db, log: log.With("repo", "ThreadSummaryRepo")}
}

func (r *threadSummaryRepo) Upsert(dbc dbctx.Context, key types.ThreadKey, summary string) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	row := &types.ThreadSummary{
		ChatID:    key.ChatID,
		ThreadID:  key.ThreadID,
		Summary:   summary,
		UpdatedAt: time.Now().UTC(),
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "thread_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"summary", "updated_at"}),
		}).
		Create(row).Error
}

func (r *threadSummaryRepo) Get(dbc dbctx.Context, key types.ThreadKey) (string, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.ThreadSummary
	err := txx.WithContext(dbc.Ctx).
		Model(&types.ThreadSummary{}).
		Where("chat_id = ? AND thread_id = ?", key.ChatID, key.ThreadID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Summary, nil
}
