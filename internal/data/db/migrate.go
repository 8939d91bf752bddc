package db

import (
	types "github.com/yungbote/threadbot-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrateAll creates the conversation-memory schema idempotently.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.ChatMessage{},
		&types.ThreadSummary{},
	)
}
