package messaging

import (
	"errors"
	"testing"
)

func TestNewTwilioSender_RequiresConfig(t *testing.T) {
	cases := []struct{ sid, token, from string }{
		{"", "tok", "+1"},
		{"AC1", "", "+1"},
		{"AC1", "tok", "  "},
	}
	for _, tc := range cases {
		if _, err := NewTwilioSender(tc.sid, tc.token, tc.from); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("NewTwilioSender(%q,%q,%q) err=%v", tc.sid, tc.token, tc.from, err)
		}
	}

	s, err := NewTwilioSender("AC1", "tok", "+14155238886")
	if err != nil {
		t.Fatalf("NewTwilioSender: %v", err)
	}
	if s.from != "whatsapp:+14155238886" {
		t.Fatalf("from = %q", s.from)
	}
}

func TestWhatsAppAddress(t *testing.T) {
	cases := map[string]string{
		"+6281234":          "whatsapp:+6281234",
		"whatsapp:+6281234": "whatsapp:+6281234",
		" +6281234 ":        "whatsapp:+6281234",
	}
	for in, want := range cases {
		if got := WhatsAppAddress(in); got != want {
			t.Fatalf("WhatsAppAddress(%q) = %q, want %q", in, got, want)
		}
	}
	if got := StripWhatsApp("whatsapp:+6281234"); got != "+6281234" {
		t.Fatalf("StripWhatsApp = %q", got)
	}
	if got := StripWhatsApp("+6281234"); got != "+6281234" {
		t.Fatalf("StripWhatsApp plain = %q", got)
	}
}
