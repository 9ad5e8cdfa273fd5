package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/repo"
)

func TestConversationStore_AppendHistoryWindowClear(t *testing.T) {
	db := newSvcDB(t, true)
	st := NewConversationStore(db)
	ctx := context.Background()

	const n = 13
	for i := 0; i < n; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		id, err := st.Append(ctx, "s1", role, fmt.Sprintf("m%d", i), domain.SourceWeb)
		if err != nil || id == 0 {
			t.Fatalf("Append %d: id=%d err=%v", i, id, err)
		}
	}

	hist, err := st.FullHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("FullHistory: %v", err)
	}
	if len(hist) != n {
		t.Fatalf("expected %d entries, got %d", n, len(hist))
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].Timestamp.Before(hist[i-1].Timestamp) {
			t.Fatalf("history not chronological at %d", i)
		}
	}

	win, err := st.RecentWindow(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("RecentWindow: %v", err)
	}
	if len(win) != 10 {
		t.Fatalf("expected window of 10, got %d", len(win))
	}
	for i := range win {
		if win[i].Content != hist[n-10+i].Content || win[i].Role != hist[n-10+i].Role {
			t.Fatalf("window[%d]=%+v does not match history tail %+v", i, win[i], hist[n-10+i])
		}
	}

	count, last, err := st.Stats(ctx, "s1")
	if err != nil || count != n || last == nil {
		t.Fatalf("Stats: count=%d last=%v err=%v", count, last, err)
	}

	if err := st.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	hist, err = st.FullHistory(ctx, "s1")
	if err != nil || len(hist) != 0 {
		t.Fatalf("after clear: len=%d err=%v", len(hist), err)
	}
	if _, err := repo.GetSession(ctx, db, "s1"); err != nil {
		t.Fatalf("session row should survive clear: %v", err)
	}
	if err := st.Clear(ctx, "s1"); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestConversationStore_FullHistoryUnknownSession(t *testing.T) {
	st := NewConversationStore(newSvcDB(t, true))
	hist, err := st.FullHistory(context.Background(), "nobody")
	if err != nil || hist == nil || len(hist) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v err=%v", hist, err)
	}
}

func TestConversationStore_StorageErrorsAreWrapped(t *testing.T) {
	st := NewConversationStore(newSvcDB(t, false))
	ctx := context.Background()

	if _, err := st.Append(ctx, "s1", domain.RoleUser, "x", domain.SourceWeb); !errors.Is(err, ErrStorage) {
		t.Fatalf("Append: expected ErrStorage, got %v", err)
	}
	if _, err := st.RecentWindow(ctx, "s1", 10); !errors.Is(err, ErrStorage) {
		t.Fatalf("RecentWindow: expected ErrStorage, got %v", err)
	}
	if _, err := st.FullHistory(ctx, "s1"); !errors.Is(err, ErrStorage) {
		t.Fatalf("FullHistory: expected ErrStorage, got %v", err)
	}
	if err := st.Clear(ctx, "s1"); !errors.Is(err, ErrStorage) {
		t.Fatalf("Clear: expected ErrStorage, got %v", err)
	}
	if err := st.EnsureSession(ctx, "s1"); !errors.Is(err, ErrStorage) {
		t.Fatalf("EnsureSession: expected ErrStorage, got %v", err)
	}
	if _, _, err := st.Stats(ctx, "s1"); !errors.Is(err, ErrStorage) {
		t.Fatalf("Stats: expected ErrStorage, got %v", err)
	}
}
