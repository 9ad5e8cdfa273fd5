// Twilio WhatsApp webhook.
//
//   - POST /webhook/twilio  (form-encoded inbound message from Twilio)
//
// Requests are authenticated with the X-Twilio-Signature header and fed into
// the same WhatsApp pipeline as /webhook/whatsapp. Replies go out through the
// REST API when a sender is configured and inline as TwiML otherwise.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"

	"github.com/tbourn/go-chat-relay/internal/http/middleware"
	"github.com/tbourn/go-chat-relay/internal/messaging"
	"github.com/tbourn/go-chat-relay/internal/services"
)

// TwilioSignatureHeader carries Twilio's request signature.
const TwilioSignatureHeader = "X-Twilio-Signature"

// twilioDevice tags inbound payloads that arrived through Twilio.
const twilioDevice = "twilio"

// ReplySender delivers a reply out of band.
type ReplySender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// TwilioOptions configures the Twilio webhook.
type TwilioOptions struct {
	// AuthToken validates request signatures. Required.
	AuthToken string
	// PublicBaseURL is the externally visible scheme://host the webhook is
	// registered under. When empty it is derived from the request.
	PublicBaseURL string
}

// TwilioHandler serves POST /webhook/twilio.
type TwilioHandler struct {
	wa        WhatsApp
	archive   Archiver
	sender    ReplySender
	validator client.RequestValidator
	baseURL   string
}

// NewTwilioHandler builds the handler. archive and sender may be nil.
func NewTwilioHandler(wa WhatsApp, archive Archiver, sender ReplySender, opts TwilioOptions) *TwilioHandler {
	return &TwilioHandler{
		wa:        wa,
		archive:   archive,
		sender:    sender,
		validator: client.NewRequestValidator(opts.AuthToken),
		baseURL:   strings.TrimRight(opts.PublicBaseURL, "/"),
	}
}

// Webhook godoc
// @ID          twilioWebhook
// @Summary     Receive a WhatsApp message from Twilio
// @Description Same behavior as /webhook/whatsapp; the reply is sent via the Twilio REST API or returned as TwiML.
// @Tags        WhatsApp
// @Accept      x-www-form-urlencoded
// @Produce     xml
// @Param       X-Twilio-Signature  header    string  true   "Twilio request signature"
// @Param       From                formData  string  true   "Sender, e.g. whatsapp:+6281234"
// @Param       Body                formData  string  false  "Message text"
// @Param       ProfileName         formData  string  false  "WhatsApp profile name"
// @Success     200  {string}  string  "TwiML reply"
// @Success     204  {string}  string  "Acknowledged without inline reply"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Bad signature"
// @Router      /webhook/twilio [post]
func (t *TwilioHandler) Webhook(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	if err := c.Request.ParseForm(); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form body")
		return
	}
	params := make(map[string]string, len(c.Request.PostForm))
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	sig := c.GetHeader(TwilioSignatureHeader)
	if sig == "" || !t.validator.Validate(t.requestURL(c), params, sig) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "invalid Twilio signature")
		return
	}

	if t.archive != nil {
		if raw, err := json.Marshal(params); err == nil {
			if err := t.archive.Append(raw); err != nil {
				lg.Warn().Err(err).Msg("webhook payload not archived")
			}
		}
	}

	in := services.Inbound{
		Device:  twilioDevice,
		From:    messaging.StripWhatsApp(params["From"]),
		Message: params["Body"],
		Name:    params["ProfileName"],
	}

	out, err := t.wa.Handle(c.Request.Context(), in)
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case err != nil:
		lg.Error().Err(err).Msg("twilio webhook failed")
		t.twiML(c, http.StatusInternalServerError, services.TextSystemError)
		return
	case out == nil || out.Silent:
		noContent(c)
		return
	}

	if t.sender != nil {
		err := t.sender.SendWhatsApp(c.Request.Context(), in.From, out.Text)
		if err == nil {
			noContent(c)
			return
		}
		lg.Warn().Err(err).Msg("twilio REST delivery failed, replying inline")
	}
	t.twiML(c, http.StatusOK, out.Text)
}

// requestURL is the URL Twilio signed: the public base plus the request URI.
func (t *TwilioHandler) requestURL(c *gin.Context) string {
	base := t.baseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + c.Request.URL.RequestURI()
}

// twiML writes text as a TwiML <Message> reply.
func (t *TwilioHandler) twiML(c *gin.Context, status int, text string) {
	doc, err := twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: text}})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not render reply")
		return
	}
	c.Data(status, "application/xml; charset=utf-8", []byte(doc))
}
