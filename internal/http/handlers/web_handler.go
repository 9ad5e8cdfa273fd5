// Web chat HTTP handlers.
//
// This file exposes the browser-facing endpoints:
//   - GET  /                  (chat page, issues the session cookie)
//   - POST /chat              (one question/answer turn)
//   - GET  /get_chat_history  (full session log, weak ETag support)
//   - GET  /health            (liveness and gateway readiness)
//
// The session id travels in a signed cookie (see middleware.SessionCookies);
// handlers never trust a raw id from the client.
package handlers

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chat-relay/internal/http/middleware"
	"github.com/tbourn/go-chat-relay/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded HTML templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// pageTitle is shown in the browser tab and header of the chat page.
const pageTitle = "Asisten Guru Matematika AI"

// healthTimeLayout is the timestamp format of GET /health.
const healthTimeLayout = "2006-01-02 15:04:05"

// WebChat is the web channel as consumed by the handlers.
//
// Implementations must be safe for concurrent use and honor ctx.
type WebChat interface {
	// Ready reports whether a completion gateway is configured.
	Ready() bool
	// NewSession creates a session and returns its id.
	NewSession(ctx context.Context) (string, error)
	// EnsureSession makes sure the session row exists.
	EnsureSession(ctx context.Context, sessionID string) error
	// Send runs one chat turn.
	Send(ctx context.Context, sessionID, text, idemKey string) (*services.ChatResult, error)
	// History returns the full session log.
	History(ctx context.Context, sessionID string) ([]services.HistoryEntry, error)
	// HistoryStats returns message count and newest timestamp.
	HistoryStats(ctx context.Context, sessionID string) (int64, *time.Time, error)
}

// ChatRequest is the JSON payload of POST /chat.
type ChatRequest struct {
	Message *string `json:"message" example:"Berapa 12 x 7?"`
}

// ChatResponse is the JSON reply of POST /chat.
type ChatResponse struct {
	Response string                  `json:"response" example:"12 x 7 = 84"`
	ChatLog  []services.HistoryEntry `json:"chat_log"`
}

// HealthResponse is the JSON reply of GET /health.
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	LLMStatus string `json:"llm_status" example:"initialized"`
	Timestamp string `json:"timestamp" example:"2024-05-01 10:00:00"`
}

// Home godoc
// @ID          home
// @Summary     Chat page
// @Description Renders the web chat. A signed session cookie is issued on first visit.
// @Tags        Web
// @Produce     html
// @Success     200  {string}  string  "HTML page"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      / [get]
func (h *Handlers) Home(c *gin.Context) {
	ctx := c.Request.Context()
	if sid, ok := middleware.SessionID(c); ok {
		if err := h.web.EnsureSession(ctx, sid); err != nil {
			failErr(c, err)
			return
		}
	} else {
		sid, err := h.web.NewSession(ctx)
		if err != nil {
			failErr(c, err)
			return
		}
		if err := h.sessions.Issue(c, sid); err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue session")
			return
		}
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": pageTitle})
}

// Chat godoc
// @ID          chat
// @Summary     Send a chat message
// @Description Stores the message, asks the tutor model and returns the reply with the full log.
// @Description The text "clear" (any case) wipes the log instead.
// @Description An Idempotency-Key header makes retries return the stored reply.
// @Tags        Web
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ChatRequest  true  "Message"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid session or message"
// @Failure     500  {object}  handlers.ErrorResponse  "LLM not initialized or storage failure"
// @Failure     502  {object}  handlers.ErrorResponse  "Model call failed"
// @Failure     504  {object}  handlers.ErrorResponse  "Model call timed out"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	if !h.web.Ready() {
		failErr(c, services.ErrGatewayUnavailable)
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	sid, _ := middleware.SessionID(c)
	idemKey, _ := middleware.GetIdempotencyKey(c)

	res, err := h.web.Send(c.Request.Context(), sid, *req.Message, idemKey)
	if err != nil {
		failErr(c, err)
		return
	}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusOK, ChatResponse{Response: res.Response, ChatLog: res.ChatLog})
}

// History godoc
// @ID          getChatHistory
// @Summary     Full chat history of the current session
// @Description Returns every message of the session oldest first, or [] without a session.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Web
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   services.HistoryEntry
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Storage failure"
// @Router      /get_chat_history [get]
func (h *Handlers) History(c *gin.Context) {
	ctx := c.Request.Context()
	sid, okSID := middleware.SessionID(c)
	if !okSID {
		ok(c, http.StatusOK, []services.HistoryEntry{})
		return
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.web.HistoryStats(ctx, sid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"history:%s:%d:%d"`, sid, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.web.History(ctx, sid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// Health godoc
// @ID          health
// @Summary     Health check
// @Description Always healthy while the process serves requests; llm_status tells whether a model is configured.
// @Tags        Web
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	status := "not initialized"
	if h.web.Ready() {
		status = "initialized"
	}
	ok(c, http.StatusOK, HealthResponse{
		Status:    "healthy",
		LLMStatus: status,
		Timestamp: h.now().Format(healthTimeLayout),
	})
}
