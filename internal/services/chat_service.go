// Package services – ChatService
//
// ChatService runs the web channel: it keeps browser sessions, handles the
// "clear" keyword and drives one question/answer turn through the assembler
// and the completion gateway. Retried POSTs that carry an Idempotency-Key
// are answered from the stored reply.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/llm"
	"github.com/tbourn/go-chat-relay/internal/repo"
)

// ClearKeyword resets a web session's history instead of asking the model.
const ClearKeyword = "clear"

// ClearedResponse is the web reply to ClearKeyword.
const ClearedResponse = "Chat history cleared"

// ChatResult is the outcome of one web turn.
type ChatResult struct {
	Response string
	ChatLog  []HistoryEntry
	// Replayed is set when the answer came from an idempotency record.
	Replayed bool
}

// ChatService coordinates web chat turns.
type ChatService struct {
	DB        *gorm.DB
	Store     *ConversationStore
	Assembler *ContextAssembler
	Gateway   llm.Gateway
	Locks     *SessionLocks

	// IdempotencyTTL bounds how long a stored reply may be replayed.
	IdempotencyTTL time.Duration
}

// NewChatService wires a ChatService. gw may be nil when no completion
// provider could be constructed; Send then fails with ErrGatewayUnavailable.
func NewChatService(db *gorm.DB, store *ConversationStore, asm *ContextAssembler, gw llm.Gateway, locks *SessionLocks) *ChatService {
	if locks == nil {
		locks = NewSessionLocks()
	}
	return &ChatService{
		DB:             db,
		Store:          store,
		Assembler:      asm,
		Gateway:        gw,
		Locks:          locks,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Ready reports whether a completion gateway is configured.
func (s *ChatService) Ready() bool { return s.Gateway != nil }

// NewSession creates a fresh browser session and returns its id.
func (s *ChatService) NewSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.Store.EnsureSession(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// EnsureSession re-creates the row for a session id presented by a client
// (for example after the database was reset).
func (s *ChatService) EnsureSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	return s.Store.EnsureSession(ctx, sessionID)
}

// Send handles one web message. "clear" (any case) wipes the history and
// never reaches the gateway. Otherwise the user turn is stored, the prompt is
// assembled, the model is asked and, only on success, the reply is stored.
func (s *ChatService) Send(ctx context.Context, sessionID, text, idemKey string) (*ChatResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if s.Gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	unlock := s.Locks.Lock(sessionID)
	defer unlock()

	if strings.EqualFold(text, ClearKeyword) {
		if err := s.Store.Clear(ctx, sessionID); err != nil {
			return nil, err
		}
		return &ChatResult{Response: ClearedResponse, ChatLog: []HistoryEntry{}}, nil
	}

	idemKey = strings.TrimSpace(idemKey)
	if idemKey != "" {
		if res, ok := s.replay(ctx, sessionID, idemKey); ok {
			span.SetAttributes(attribute.Bool("idempotency.replayed", true))
			return res, nil
		}
	}

	if _, err := s.Store.Append(ctx, sessionID, domain.RoleUser, text, domain.SourceWeb); err != nil {
		return nil, err
	}
	prompt, err := s.Assembler.Assemble(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	reply, err := s.Gateway.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	msgID, err := s.Store.Append(ctx, sessionID, domain.RoleAssistant, reply.Content, domain.SourceWeb)
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		if _, err := repo.CreateIdempotency(ctx, s.DB, sessionID, idemKey, msgID, http.StatusOK, s.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency record not stored")
		}
	}

	history, err := s.Store.FullHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &ChatResult{Response: reply.Content, ChatLog: history}, nil
}

// replay answers from a stored reply. Lookup problems and replies that were
// cleared in the meantime fall through to normal processing.
func (s *ChatService) replay(ctx context.Context, sessionID, key string) (*ChatResult, bool) {
	rec, err := repo.GetIdempotency(ctx, s.DB, sessionID, key, time.Now().UTC())
	if err != nil {
		return nil, false
	}
	msg, err := repo.GetMessage(ctx, s.DB, rec.MessageID)
	if err != nil || msg.SessionID != sessionID {
		return nil, false
	}
	history, err := s.Store.FullHistory(ctx, sessionID)
	if err != nil {
		return nil, false
	}
	return &ChatResult{Response: msg.Content, ChatLog: history, Replayed: true}, true
}

// History returns the full log of a session; an empty id yields an empty log.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	if strings.TrimSpace(sessionID) == "" {
		return []HistoryEntry{}, nil
	}
	return s.Store.FullHistory(ctx, sessionID)
}

// HistoryStats returns the message count and newest timestamp for ETags.
func (s *ChatService) HistoryStats(ctx context.Context, sessionID string) (int64, *time.Time, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, nil, nil
	}
	return s.Store.Stats(ctx, sessionID)
}
