package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/llm"
)

func newChatSvc(t *testing.T, gw llm.Gateway) (*ChatService, *ConversationStore) {
	t.Helper()
	db := newSvcDB(t, true)
	st := NewConversationStore(db)
	return NewChatService(db, st, NewContextAssembler(st, DefaultWindow), gw, nil), st
}

func TestChatService_HelloThenClear(t *testing.T) {
	gw := &fakeGateway{reply: "Halo! Ada yang bisa dibantu?"}
	svc, _ := newChatSvc(t, gw)
	ctx := context.Background()

	sid, err := svc.NewSession(ctx)
	if err != nil || sid == "" {
		t.Fatalf("NewSession: sid=%q err=%v", sid, err)
	}

	res, err := svc.Send(ctx, sid, "Hello", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Response != gw.reply {
		t.Fatalf("response = %q", res.Response)
	}
	if len(res.ChatLog) != 2 || res.ChatLog[0].Role != domain.RoleUser || res.ChatLog[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected chat log: %+v", res.ChatLog)
	}
	if len(gw.last) != 2 || gw.last[0].Content != Persona || gw.last[1].Content != "Hello" {
		t.Fatalf("unexpected prompt: %+v", gw.last)
	}

	res, err = svc.Send(ctx, sid, "  CLEAR ", "")
	if err != nil {
		t.Fatalf("Send clear: %v", err)
	}
	if res.Response != ClearedResponse || res.ChatLog == nil || len(res.ChatLog) != 0 {
		t.Fatalf("unexpected clear result: %+v", res)
	}
	if gw.Calls() != 1 {
		t.Fatalf("gateway must not be called for clear, calls=%d", gw.Calls())
	}

	hist, err := svc.History(ctx, sid)
	if err != nil || len(hist) != 0 {
		t.Fatalf("history after clear: len=%d err=%v", len(hist), err)
	}
}

func TestChatService_ClearIsExactMatch(t *testing.T) {
	gw := &fakeGateway{reply: "ok"}
	svc, _ := newChatSvc(t, gw)

	res, err := svc.Send(context.Background(), "s1", "clear please", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gw.Calls() != 1 || len(res.ChatLog) != 2 {
		t.Fatalf("prefix of clear must be a normal message: calls=%d log=%d", gw.Calls(), len(res.ChatLog))
	}
}

func TestChatService_Validation(t *testing.T) {
	svc, _ := newChatSvc(t, &fakeGateway{reply: "x"})
	ctx := context.Background()

	if _, err := svc.Send(ctx, "", "hi", ""); !errors.Is(err, ErrInvalidSession) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := svc.Send(ctx, "s1", "   ", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestChatService_NoGateway(t *testing.T) {
	svc, _ := newChatSvc(t, nil)
	if svc.Ready() {
		t.Fatalf("Ready() with nil gateway")
	}
	if _, err := svc.Send(context.Background(), "s1", "hi", ""); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestChatService_GatewayFailureStoresNoReply(t *testing.T) {
	gw := &fakeGateway{err: llm.ErrGatewayTimeout}
	svc, st := newChatSvc(t, gw)
	ctx := context.Background()

	if _, err := svc.Send(ctx, "s1", "hi", ""); !errors.Is(err, ErrGatewayTimeout) {
		t.Fatalf("expected ErrGatewayTimeout, got %v", err)
	}
	hist, _ := st.FullHistory(ctx, "s1")
	if len(hist) != 1 || hist[0].Role != domain.RoleUser {
		t.Fatalf("only the user turn should be stored, got %+v", hist)
	}
}

func TestChatService_IdempotentReplay(t *testing.T) {
	gw := &fakeGateway{reply: "jawaban"}
	svc, _ := newChatSvc(t, gw)
	ctx := context.Background()

	first, err := svc.Send(ctx, "s1", "2+2?", "key-1")
	if err != nil {
		t.Fatalf("first Send: %v", err)
	}
	gw.reply = "different"
	second, err := svc.Send(ctx, "s1", "2+2?", "key-1")
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if !second.Replayed || second.Response != first.Response {
		t.Fatalf("expected replay of %q, got %+v", first.Response, second)
	}
	if gw.Calls() != 1 {
		t.Fatalf("gateway called %d times", gw.Calls())
	}
	if len(second.ChatLog) != 2 {
		t.Fatalf("replay must not persist again, log=%d", len(second.ChatLog))
	}

	// another key is a new turn
	third, err := svc.Send(ctx, "s1", "2+2?", "key-2")
	if err != nil || third.Replayed || third.Response != "different" {
		t.Fatalf("new key: res=%+v err=%v", third, err)
	}
}

func TestChatService_ReplayAfterClearRunsAgain(t *testing.T) {
	gw := &fakeGateway{reply: "a"}
	svc, _ := newChatSvc(t, gw)
	ctx := context.Background()

	if _, err := svc.Send(ctx, "s1", "q", "k"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := svc.Send(ctx, "s1", "clear", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	res, err := svc.Send(ctx, "s1", "q", "k")
	if err != nil {
		t.Fatalf("Send after clear: %v", err)
	}
	if res.Replayed || gw.Calls() != 2 {
		t.Fatalf("cleared reply must not be replayed: %+v calls=%d", res, gw.Calls())
	}
}

func TestChatService_HistoryAndStats_EmptySession(t *testing.T) {
	svc, _ := newChatSvc(t, nil)
	ctx := context.Background()

	hist, err := svc.History(ctx, "")
	if err != nil || hist == nil || len(hist) != 0 {
		t.Fatalf("History(\"\") = %#v, %v", hist, err)
	}
	n, last, err := svc.HistoryStats(ctx, "")
	if err != nil || n != 0 || last != nil {
		t.Fatalf("HistoryStats(\"\") = %d, %v, %v", n, last, err)
	}
	if err := svc.EnsureSession(ctx, " "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("EnsureSession blank: %v", err)
	}
	if err := svc.EnsureSession(ctx, "restored"); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
}
