package chat

import "time"

// ThreadSummary is the rolling compressed memory of a thread. The composite
// primary key makes "at most one summary per thread" a schema invariant;
// writes are last-write-wins upserts.
type ThreadSummary struct {
	ChatID   int64 `gorm:"primaryKey;autoIncrement:false" json:"chat_id"`
	ThreadID int64 `gorm:"primaryKey;autoIncrement:false" json:"thread_id"`

	Summary string `gorm:"type:text;not null" json:"summary"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ThreadSummary) TableName() string { return "thread_summaries" }
