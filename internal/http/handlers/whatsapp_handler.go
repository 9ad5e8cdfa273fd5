// WhatsApp webhook handlers.
//
//   - GET  /webhook/whatsapp  (liveness probe for the gateway operator)
//   - POST /webhook/whatsapp  (one inbound message)
//
// Callers of the webhook only understand a {"text": ...} body, so errors are
// reported that way instead of with ErrorResponse.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chat-relay/internal/http/middleware"
	"github.com/tbourn/go-chat-relay/internal/services"
)

// WhatsAppReply is the body of every non-empty webhook response.
type WhatsAppReply struct {
	Text string `json:"text" example:"Status sesi Anda saat ini: aktif"`
}

// WhatsAppStatus is the body of GET /webhook/whatsapp.
type WhatsAppStatus struct {
	Status  string `json:"status" example:"active"`
	Message string `json:"message"`
}

// WhatsAppProbe godoc
// @ID          whatsappProbe
// @Summary     WhatsApp webhook status
// @Tags        WhatsApp
// @Produce     json
// @Success     200  {object}  handlers.WhatsAppStatus
// @Router      /webhook/whatsapp [get]
func (h *Handlers) WhatsAppProbe(c *gin.Context) {
	ok(c, http.StatusOK, WhatsAppStatus{
		Status:  "active",
		Message: "WhatsApp webhook is running. Send POST request to interact.",
	})
}

// WhatsAppWebhook godoc
// @ID          whatsappWebhook
// @Summary     Receive a WhatsApp message
// @Description Commands: /mulai, /berhenti, /status, /clear. Other text from an active contact is answered by the tutor model.
// @Description Messages from inactive contacts are acknowledged with 204.
// @Tags        WhatsApp
// @Accept      json
// @Produce     json
// @Param       body  body  services.Inbound  true  "Gateway payload"
// @Success     200  {object}  handlers.WhatsAppReply
// @Success     204  {string}  string  "Acknowledged without reply"
// @Failure     400  {object}  handlers.WhatsAppReply  "Malformed payload"
// @Failure     500  {object}  handlers.WhatsAppReply  "System error"
// @Router      /webhook/whatsapp [post]
func (h *Handlers) WhatsAppWebhook(c *gin.Context) {
	lg := middleware.LoggerFrom(c)
	defer func() {
		if rec := recover(); rec != nil {
			lg.Error().Interface("panic", rec).Msg("whatsapp webhook panic")
			c.AbortWithStatusJSON(http.StatusInternalServerError, WhatsAppReply{Text: services.TextSystemError})
		}
	}()

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, WhatsAppReply{Text: "invalid request body"})
		return
	}
	if len(raw) == 0 {
		noContent(c)
		return
	}

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		c.JSON(http.StatusBadRequest, WhatsAppReply{Text: "invalid JSON"})
		return
	}
	if len(probe) == 0 {
		noContent(c)
		return
	}

	if h.archive != nil {
		if err := h.archive.Append(raw); err != nil {
			lg.Warn().Err(err).Msg("webhook payload not archived")
		}
	}

	var in services.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.JSON(http.StatusBadRequest, WhatsAppReply{Text: "invalid payload"})
		return
	}

	h.replyWhatsApp(c, in)
}

// replyWhatsApp runs the WhatsApp pipeline and writes its outcome as JSON.
func (h *Handlers) replyWhatsApp(c *gin.Context, in services.Inbound) {
	out, err := h.wa.Handle(c.Request.Context(), in)
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, WhatsAppReply{Text: err.Error()})
	case err != nil:
		middleware.LoggerFrom(c).Error().Err(err).Msg("whatsapp webhook failed")
		c.JSON(http.StatusInternalServerError, WhatsAppReply{Text: services.TextSystemError})
	case out == nil || out.Silent:
		noContent(c)
	default:
		ok(c, http.StatusOK, WhatsAppReply{Text: out.Text})
	}
}
