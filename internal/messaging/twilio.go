// Package messaging delivers outbound WhatsApp replies through Twilio.
package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const whatsappScheme = "whatsapp:"

// ErrNotConfigured is returned when credentials or the sender number are missing.
var ErrNotConfigured = errors.New("twilio sender not configured")

// TwilioSender sends WhatsApp messages with the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a sender. from is the Twilio WhatsApp number, with or
// without the "whatsapp:" prefix.
func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || strings.TrimSpace(from) == "" {
		return nil, ErrNotConfigured
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: WhatsAppAddress(from)}, nil
}

// SendWhatsApp sends body to the given phone number.
func (s *TwilioSender) SendWhatsApp(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(WhatsAppAddress(to))
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp != nil && resp.Sid != nil {
		zerolog.Ctx(ctx).Debug().Str("sid", *resp.Sid).Msg("whatsapp reply sent")
	}
	return nil
}

// WhatsAppAddress returns phone in Twilio's "whatsapp:+NNN" address form.
func WhatsAppAddress(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, whatsappScheme) {
		return phone
	}
	return whatsappScheme + phone
}

// StripWhatsApp removes the "whatsapp:" prefix from a Twilio address.
func StripWhatsApp(addr string) string {
	return strings.TrimPrefix(strings.TrimSpace(addr), whatsappScheme)
}
