package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

func TestMessagesStats_NoTable(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := MessagesStats(context.Background(), db, "s1"); err == nil {
		t.Fatalf("expected error due to missing messages table")
	}
}

func TestMessagesStats_ZeroRows(t *testing.T) {
	db := newSchemaDB(t)
	count, lastAt, err := MessagesStats(context.Background(), db, "s1")
	if err != nil {
		t.Fatalf("MessagesStats: %v", err)
	}
	if count != 0 || lastAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, lastAt)
	}
}

func TestMessagesStats_CountAndLatest(t *testing.T) {
	db := newSchemaDB(t)
	ctx := context.Background()

	var last *domain.Message
	for i := 0; i < 3; i++ {
		m, err := AppendMessage(ctx, db, "s1", domain.RoleUser, "x", domain.SourceWeb)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		last = m
	}

	count, lastAt, err := MessagesStats(ctx, db, "s1")
	if err != nil {
		t.Fatalf("MessagesStats: %v", err)
	}
	if count != 3 || lastAt == nil {
		t.Fatalf("expected count=3 and a timestamp, got (%d, %v)", count, lastAt)
	}
	if d := lastAt.Sub(last.Timestamp); d > time.Millisecond || d < -time.Millisecond {
		t.Fatalf("lastAt=%v want %v", lastAt, last.Timestamp)
	}
}
