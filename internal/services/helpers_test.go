package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-chat-relay/internal/llm"
	"github.com/tbourn/go-chat-relay/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "svc.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if migrate {
		if err := repo.AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

type fakeGateway struct {
	mu    sync.Mutex
	calls int
	last  []llm.Message
	reply string
	err   error
}

func (g *fakeGateway) Complete(ctx context.Context, msgs []llm.Message) (*llm.Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.last = append([]llm.Message(nil), msgs...)
	if g.err != nil {
		return nil, g.err
	}
	return &llm.Reply{Content: g.reply}, nil
}

func (g *fakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
