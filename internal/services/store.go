// Package services – ConversationStore
//
// ConversationStore is the durable log of sessions and their messages. It is
// a thin layer over the repo functions that stamps storage faults with
// ErrStorage and shapes rows into the views the rest of the service needs.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-chat-relay/internal/repo"
)

// DefaultWindow is the number of recent messages fed to the model.
const DefaultWindow = 10

// Turn is a message as seen by the prompt assembler.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryEntry is a message as shown to the web client.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationStore persists sessions and messages.
type ConversationStore struct {
	DB *gorm.DB
}

// NewConversationStore returns a store backed by db.
func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{DB: db}
}

// EnsureSession creates the session row if it is missing.
func (s *ConversationStore) EnsureSession(ctx context.Context, sessionID string) error {
	if err := repo.EnsureSession(ctx, s.DB, sessionID); err != nil {
		return storageErr("ensure session", err)
	}
	return nil
}

// Append stores one message with the current timestamp and returns its id.
// The session row is created on first use.
func (s *ConversationStore) Append(ctx context.Context, sessionID, role, content, source string) (uint, error) {
	tr := otel.Tracer("services/ConversationStore")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("message.role", role),
			attribute.String("message.source", source),
		),
	)
	defer span.End()

	m, err := repo.AppendMessage(ctx, s.DB, sessionID, role, content, source)
	if err != nil {
		span.RecordError(err)
		return 0, storageErr("append", err)
	}
	return m.ID, nil
}

// RecentWindow returns the last limit messages of a session, oldest first.
func (s *ConversationStore) RecentWindow(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	rows, err := repo.RecentMessages(ctx, s.DB, sessionID, limit)
	if err != nil {
		return nil, storageErr("recent window", err)
	}
	out := make([]Turn, len(rows))
	for i, m := range rows {
		out[i] = Turn{Role: m.Role, Content: m.Content}
	}
	return out, nil
}

// FullHistory returns every message of a session, oldest first. An unknown
// session yields an empty, non-nil slice.
func (s *ConversationStore) FullHistory(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	rows, err := repo.ListMessages(ctx, s.DB, sessionID)
	if err != nil {
		return nil, storageErr("full history", err)
	}
	out := make([]HistoryEntry, len(rows))
	for i, m := range rows {
		out[i] = HistoryEntry{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
	}
	return out, nil
}

// Clear hard-deletes all messages of a session. The session row stays.
func (s *ConversationStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := repo.DeleteMessages(ctx, s.DB, sessionID); err != nil {
		return storageErr("clear", err)
	}
	return nil
}

// Stats returns the message count and newest timestamp of a session.
func (s *ConversationStore) Stats(ctx context.Context, sessionID string) (int64, *time.Time, error) {
	n, last, err := repo.MessagesStats(ctx, s.DB, sessionID)
	if err != nil {
		return 0, nil, storageErr("stats", err)
	}
	return n, last, nil
}
