package chat

import (
	"context"
	"testing"

	"github.com/yungbote/threadbot-backend/internal/data/repos/testutil"
	types "github.com/yungbote/threadbot-backend/internal/domain"
	"github.com/yungbote/threadbot-backend/internal/pkg/dbctx"
)

func TestThreadSummaryRepoUpsertAndGet(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewThreadSummaryRepo(gdb, testutil.Logger(t))
	key := types.ThreadKey{ChatID: -42, ThreadID: 3}

	// Absent summary reads as empty, not as an error.
	got, err := repo.Get(dbc, key)
	if err != nil {
		t.Fatalf("Get(absent): %v", err)
	}
	if got != "" {
		t.Fatalf("Get(absent): got=%q want empty", got)
	}

	if err := repo.Upsert(dbc, key, "v1"); err != nil {
		t.Fatalf("Upsert(v1): %v", err)
	}
	// Idempotent under an identical write.
	if err := repo.Upsert(dbc, key, "v1"); err != nil {
		t.Fatalf("Upsert(v1 repeat): %v", err)
	}
	if got, err = repo.Get(dbc, key); err != nil || got != "v1" {
		t.Fatalf("Get after v1: got=%q err=%v", got, err)
	}

	// Last write wins under a differing write.
	if err := repo.Upsert(dbc, key, "v2"); err != nil {
		t.Fatalf("Upsert(v2): %v", err)
	}
	if got, err = repo.Get(dbc, key); err != nil || got != "v2" {
		t.Fatalf("Get after v2: got=%q err=%v", got, err)
	}

	// Exactly one row per key.
	var count int64
	if err := tx.Model(&types.ThreadSummary{}).
		Where("chat_id = ? AND thread_id = ?", key.ChatID, key.ThreadID).
		Count(&count).Error; err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("summary row count: got=%d want=1", count)
	}
}

func TestThreadSummaryRepoKeyIsolation(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewThreadSummaryRepo(gdb, testutil.Logger(t))

	if err := repo.Upsert(dbc, types.ThreadKey{ChatID: 1, ThreadID: 1}, "a"); err != nil {
		t.Fatalf("Upsert a: %v", err)
	}
	if err := repo.Upsert(dbc, types.ThreadKey{ChatID: 1, ThreadID: 2}, "b"); err != nil {
		t.Fatalf("Upsert b: %v", err)
	}

	if got, err := repo.Get(dbc, types.ThreadKey{ChatID: 1, ThreadID: 1}); err != nil || got != "a" {
		t.Fatalf("Get a: got=%q err=%v", got, err)
	}
	if got, err := repo.Get(dbc, types.ThreadKey{ChatID: 1, ThreadID: 2}); err != nil || got != "b" {
		t.Fatalf("Get b: got=%q err=%v", got, err)
	}
}
