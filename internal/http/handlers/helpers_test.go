package handlers

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-chat-relay/internal/http/middleware"
	"github.com/tbourn/go-chat-relay/internal/llm"
	"github.com/tbourn/go-chat-relay/internal/repo"
	"github.com/tbourn/go-chat-relay/internal/services"
)

// ---------- test DB + fakes ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "handlers.db")), &gorm.Config{
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
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeGateway struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (g *fakeGateway) Complete(_ context.Context, _ []llm.Message) (*llm.Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
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

type memArchive struct {
	mu       sync.Mutex
	payloads []string
}

func (a *memArchive) Append(p []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.payloads = append(a.payloads, string(p))
	return nil
}

func (a *memArchive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.payloads)
}

// stack is a fully wired handler set over a real store.
type stack struct {
	db       *gorm.DB
	store    *services.ConversationStore
	chat     *services.ChatService
	wa       *services.WhatsAppService
	cookies  *middleware.SessionCookies
	archive  *memArchive
	handlers *Handlers
}

// newStack wires services over a temp DB. A nil gw means "no gateway".
func newStack(t *testing.T, gw *fakeGateway) *stack {
	t.Helper()
	db := newHandlerDB(t)
	store := services.NewConversationStore(db)
	asm := services.NewContextAssembler(store, services.DefaultWindow)
	locks := services.NewSessionLocks()

	var gateway llm.Gateway
	if gw != nil {
		gateway = gw
	}

	chat := services.NewChatService(db, store, asm, gateway, locks)
	wa := services.NewWhatsAppService(store, services.NewActivationRegistry(db), asm, gateway, locks, nil)
	cookies := middleware.NewSessionCookies(middleware.SessionOptions{Secret: []byte("handler-secret"), TTL: time.Hour})
	arch := &memArchive{}

	return &stack{
		db:       db,
		store:    store,
		chat:     chat,
		wa:       wa,
		cookies:  cookies,
		archive:  arch,
		handlers: New(chat, wa, cookies, arch),
	}
}

// router mounts the web and WhatsApp routes behind the session middleware.
func (s *stack) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(Templates())
	r.Use(s.cookies.Middleware())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.GET("/", s.handlers.Home)
	r.POST("/chat", s.handlers.Chat)
	r.GET("/get_chat_history", s.handlers.History)
	r.GET("/health", s.handlers.Health)
	r.GET("/webhook/whatsapp", s.handlers.WhatsAppProbe)
	r.POST("/webhook/whatsapp", s.handlers.WhatsAppWebhook)
	return r
}
