// Package handlers implements the HTTP endpoints of the chat relay: the web
// chat, the WhatsApp webhook and the optional Twilio webhook.
//
// Handlers are transport-thin: they decode input, call the channel services
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-chat-relay/internal/http/middleware"
	"github.com/tbourn/go-chat-relay/internal/services"
)

// WhatsApp is the WhatsApp channel as consumed by the webhook handlers.
type WhatsApp interface {
	Handle(ctx context.Context, in services.Inbound) (*services.Outbound, error)
}

// Archiver keeps a raw copy of every webhook payload.
type Archiver interface {
	Append(payload []byte) error
}

// Handlers groups the HTTP endpoints. It depends on narrow interfaces so tests
// can substitute fakes for the services.
type Handlers struct {
	web      WebChat
	wa       WhatsApp
	sessions *middleware.SessionCookies
	archive  Archiver

	now func() time.Time
}

// New constructs Handlers. archive may be nil.
func New(web WebChat, wa WhatsApp, sessions *middleware.SessionCookies, archive Archiver) *Handlers {
	return &Handlers{
		web:      web,
		wa:       wa,
		sessions: sessions,
		archive:  archive,
		now:      time.Now,
	}
}
