// Package httpapi wires the HTTP transport (Gin) to the relay services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/archive"
	"github.com/tbourn/go-chat-relay/internal/config"
	_ "github.com/tbourn/go-chat-relay/internal/docs"
	"github.com/tbourn/go-chat-relay/internal/http/handlers"
	"github.com/tbourn/go-chat-relay/internal/http/middleware"
	"github.com/tbourn/go-chat-relay/internal/llm"
	"github.com/tbourn/go-chat-relay/internal/messaging"
	"github.com/tbourn/go-chat-relay/internal/repo"
	"github.com/tbourn/go-chat-relay/internal/services"
)

const (
	webhookPrefix     = "/webhook/"
	webhookRateFactor = 10
)

// contentSecurityPolicy allows the inline script and styles of the chat page.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. gw may be nil, in which case /chat answers 500 and the WhatsApp
// flow falls back to its apology text.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Session cookie (before idempotency, which is scoped per session)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per session/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gw llm.Gateway, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(handlers.Templates())

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{handlers.TwilioSignatureHeader},
		QuietPaths:  []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (WhatsApp payloads may carry a base64 image)
	r.Use(limitBody(8 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Signed session cookie
	cookies := middleware.NewSessionCookies(middleware.SessionOptions{
		Secret: []byte(cfg.Session.Secret),
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.CookieSecure,
	})
	r.Use(cookies.Middleware())

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, sessionID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, sessionID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per session/IP. Webhooks arrive from one
	// gateway address for every contact, so they get their own wider bucket.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySessionOrIP()).
		Skip(func(c *gin.Context) bool {
			p := c.Request.URL.Path
			return strings.HasPrefix(p, webhookPrefix) || p == "/health" || p == "/metrics"
		})
	r.Use(rl.Handler())
	webhookRL := middleware.NewRateLimiter(cfg.RateRPS*webhookRateFactor, cfg.RateBurst*webhookRateFactor, middleware.KeyByIP())

	// 10) CORS posture. The chat page is same-origin; cross-origin callers
	// only get through when explicitly allowed.
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		NoStore:               false,
		EnablePolicy:          true,
		ContentSecurityPolicy: contentSecurityPolicy,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services <- store/registry/gateway
	store := services.NewConversationStore(db)
	registry := services.NewActivationRegistry(db)
	asm := services.NewContextAssembler(store, cfg.HistoryWindow)
	locks := services.NewSessionLocks()
	webhookLog := archive.NewWebhookLog(cfg.WhatsApp.ArchivePath)

	chatSvc := services.NewChatService(db, store, asm, gw, locks)
	if cfg.IdempotencyTTL > 0 {
		chatSvc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	waSvc := services.NewWhatsAppService(store, registry, asm, gw, locks, archive.NewImageDir(cfg.WhatsApp.ImagesDir))
	h := handlers.New(chatSvc, waSvc, cookies, webhookLog)

	// Web channel
	compressed := r.Group("", gzip.Gzip(gzip.DefaultCompression))
	{
		compressed.GET("/", h.Home)
		compressed.GET("/get_chat_history", h.History)
	}
	r.POST("/chat", h.Chat)
	r.GET("/health", h.Health)

	// WhatsApp channel
	webhooks := r.Group(webhookPrefix, webhookRL.Handler())
	webhooks.GET("/whatsapp", h.WhatsAppProbe)
	webhooks.POST("/whatsapp", h.WhatsAppWebhook)

	if cfg.WhatsApp.TwilioEnabled() {
		var sender handlers.ReplySender
		if s, err := messaging.NewTwilioSender(cfg.WhatsApp.TwilioAccountSID, cfg.WhatsApp.TwilioAuthToken, cfg.WhatsApp.TwilioWhatsAppFrom); err == nil {
			sender = s
		} else {
			log.Warn().Err(err).Msg("twilio REST delivery disabled; replying with TwiML")
		}
		th := handlers.NewTwilioHandler(waSvc, webhookLog, sender, handlers.TwilioOptions{
			AuthToken:     cfg.WhatsApp.TwilioAuthToken,
			PublicBaseURL: cfg.WhatsApp.PublicBaseURL,
		})
		webhooks.POST("/twilio", th.Webhook)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
