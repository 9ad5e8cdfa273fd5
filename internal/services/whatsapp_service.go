// Package services – WhatsAppService
//
// WhatsAppService runs the WhatsApp channel. Every contact moves between two
// states, inactive and active, through the /mulai and /berhenti commands.
// Only active contacts get their messages answered; everything else from an
// inactive contact is acknowledged silently.
package services

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/llm"
)

// WhatsApp commands.
const (
	CmdStart  = "/mulai"
	CmdStop   = "/berhenti"
	CmdStatus = "/status"
	CmdClear  = "/clear"
)

// System markers stored in the history when the session changes state.
const (
	MarkerStarted = "Sesi baru dimulai"
	MarkerStopped = "Sesi diakhiri"
	MarkerCleared = "History chat dibersihkan"
)

// Reply texts.
const (
	TextWelcome = "Selamat datang di Asisten Guru Matematika AI! 🎓\n\n" +
		"Saya siap membantu Anda belajar matematika. Silakan ajukan pertanyaan Anda.\n\n" +
		"Perintah yang tersedia:\n" +
		"- /status : Cek status sesi Anda\n" +
		"- /clear : Hapus history chat\n" +
		"- /berhenti : Mengakhiri sesi belajar"

	TextFarewell = "Terima kasih telah menggunakan Asisten Guru Matematika AI! 👋\n\n" +
		"Ketik /mulai jika Anda ingin belajar lagi."

	TextStatusActive   = "Status sesi Anda saat ini: aktif\n\nAnda bisa langsung bertanya"
	TextStatusInactive = "Status sesi Anda saat ini: tidak aktif\n\nKetik /mulai untuk memulai sesi belajar"

	TextActivationRequired = "Anda harus memulai sesi terlebih dahulu dengan mengetik /mulai"

	TextCleared = "History chat telah dibersihkan.\nAnda bisa mulai bertanya lagi!"

	TextApology = "Maaf, terjadi kesalahan dalam memproses pesan Anda." +
		"\nSilakan coba lagi atau ketik /clear jika mengalami masalah."

	TextSystemError = "Terjadi kesalahan sistem"
)

// Inbound is one decoded WhatsApp webhook payload.
type Inbound struct {
	Device      string `json:"device"`
	Message     string `json:"message"`
	From        string `json:"from"`
	Name        string `json:"name"`
	BufferImage string `json:"bufferImage,omitempty"`
}

// Outbound is the reply to a webhook call. Silent means "acknowledge without
// a body".
type Outbound struct {
	Text   string
	Silent bool
}

// ImageStore persists decoded attachments.
type ImageStore interface {
	SaveImage(ctx context.Context, from string, data []byte, at time.Time) (string, error)
}

// WhatsAppService coordinates WhatsApp turns.
type WhatsAppService struct {
	Store     *ConversationStore
	Registry  *ActivationRegistry
	Assembler *ContextAssembler
	Gateway   llm.Gateway
	Locks     *SessionLocks
	Images    ImageStore

	now func() time.Time
}

// NewWhatsAppService wires a WhatsAppService. gw and images may be nil.
func NewWhatsAppService(store *ConversationStore, reg *ActivationRegistry, asm *ContextAssembler, gw llm.Gateway, locks *SessionLocks, images ImageStore) *WhatsAppService {
	if locks == nil {
		locks = NewSessionLocks()
	}
	return &WhatsAppService{
		Store:     store,
		Registry:  reg,
		Assembler: asm,
		Gateway:   gw,
		Locks:     locks,
		Images:    images,
		now:       time.Now,
	}
}

// normalizeCommand lowercases and trims text for command matching.
func normalizeCommand(text string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(text))
}

// Handle dispatches one inbound message. Commands are tried in a fixed order
// (/mulai, /berhenti, /status, /clear) before the activation gate; after the
// gate an attachment is stored and non-empty text is answered by the model.
// A gateway failure becomes TextApology; storage faults are returned.
func (s *WhatsAppService) Handle(ctx context.Context, in Inbound) (*Outbound, error) {
	tr := otel.Tracer("services/WhatsAppService")
	ctx, span := tr.Start(ctx, "Handle")
	defer span.End()

	from := strings.TrimSpace(in.From)
	if from == "" {
		return nil, ErrMissingSender
	}
	sessionID := domain.WhatsAppSessionID(from)
	text := strings.TrimSpace(in.Message)
	cmd := normalizeCommand(text)

	unlock := s.Locks.Lock(sessionID)
	defer unlock()

	lg := zerolog.Ctx(ctx).With().Str("session_id", sessionID).Logger()

	switch cmd {
	case CmdStart:
		waCommands.WithLabelValues("mulai").Inc()
		span.SetAttributes(attribute.String("whatsapp.command", cmd))
		s.Registry.SetStatus(ctx, from, domain.StatusActive, in.Name)
		if _, err := s.Store.Append(ctx, sessionID, domain.RoleSystem, MarkerStarted, domain.SourceWhatsApp); err != nil {
			return nil, err
		}
		return &Outbound{Text: TextWelcome}, nil

	case CmdStop:
		waCommands.WithLabelValues("berhenti").Inc()
		span.SetAttributes(attribute.String("whatsapp.command", cmd))
		s.Registry.SetStatus(ctx, from, domain.StatusInactive, in.Name)
		if _, err := s.Store.Append(ctx, sessionID, domain.RoleSystem, MarkerStopped, domain.SourceWhatsApp); err != nil {
			return nil, err
		}
		return &Outbound{Text: TextFarewell}, nil

	case CmdStatus:
		waCommands.WithLabelValues("status").Inc()
		span.SetAttributes(attribute.String("whatsapp.command", cmd))
		if s.Registry.GetStatus(ctx, from) == domain.StatusActive {
			return &Outbound{Text: TextStatusActive}, nil
		}
		return &Outbound{Text: TextStatusInactive}, nil

	case CmdClear:
		waCommands.WithLabelValues("clear").Inc()
		span.SetAttributes(attribute.String("whatsapp.command", cmd))
		if s.Registry.GetStatus(ctx, from) != domain.StatusActive {
			return &Outbound{Text: TextActivationRequired}, nil
		}
		if err := s.Store.Clear(ctx, sessionID); err != nil {
			return nil, err
		}
		if _, err := s.Store.Append(ctx, sessionID, domain.RoleSystem, MarkerCleared, domain.SourceWhatsApp); err != nil {
			return nil, err
		}
		return &Outbound{Text: TextCleared}, nil
	}

	if s.Registry.GetStatus(ctx, from) != domain.StatusActive {
		waCommands.WithLabelValues("ignored").Inc()
		return &Outbound{Silent: true}, nil
	}

	if in.BufferImage != "" {
		s.saveAttachment(ctx, &lg, from, in.BufferImage)
	}

	if text == "" {
		waCommands.WithLabelValues("attachment").Inc()
		return &Outbound{Silent: true}, nil
	}
	waCommands.WithLabelValues("message").Inc()

	if _, err := s.Store.Append(ctx, sessionID, domain.RoleUser, text, domain.SourceWhatsApp); err != nil {
		return nil, err
	}
	prompt, err := s.Assembler.Assemble(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Gateway == nil {
		lg.Error().Err(ErrGatewayUnavailable).Msg("whatsapp reply not generated")
		return &Outbound{Text: TextApology}, nil
	}
	reply, err := s.Gateway.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		lg.Error().Err(err).Msg("whatsapp reply not generated")
		return &Outbound{Text: TextApology}, nil
	}
	if _, err := s.Store.Append(ctx, sessionID, domain.RoleAssistant, reply.Content, domain.SourceWhatsApp); err != nil {
		return nil, err
	}
	return &Outbound{Text: reply.Content}, nil
}

// saveAttachment decodes and stores an inbound image. Failures are logged
// and otherwise ignored.
func (s *WhatsAppService) saveAttachment(ctx context.Context, lg *zerolog.Logger, from, encoded string) {
	if s.Images == nil {
		return
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		lg.Error().Err(err).Msg("attachment is not valid base64")
		return
	}
	path, err := s.Images.SaveImage(ctx, from, data, s.now())
	if err != nil {
		lg.Error().Err(err).Msg("attachment not saved")
		return
	}
	lg.Info().Str("path", path).Msg("attachment saved")
}
