package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func testCookies() *SessionCookies {
	return NewSessionCookies(SessionOptions{Secret: []byte("test-secret"), TTL: time.Hour})
}

func TestSessionCookies_SignVerify(t *testing.T) {
	s := testCookies()
	tok, err := s.Sign("sess-1", time.Now())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	id, err := s.Verify(tok)
	if err != nil || id != "sess-1" {
		t.Fatalf("Verify = %q, %v", id, err)
	}
}

func TestSessionCookies_VerifyRejects(t *testing.T) {
	s := testCookies()
	other := NewSessionCookies(SessionOptions{Secret: []byte("other"), TTL: time.Hour})

	foreign, _ := other.Sign("sess-1", time.Now())
	expired, _ := s.Sign("sess-1", time.Now().Add(-2*time.Hour))
	noSubject, _ := s.Sign("", time.Now())

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "sess-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "sess-1",
		Issuer:  sessionIssuer,
	}).SignedString([]byte("test-secret"))

	cases := map[string]string{
		"garbage":      "not-a-token",
		"foreign":      foreign,
		"expired":      expired,
		"no subject":   noSubject,
		"wrong issuer": wrongIssuer,
		"no expiry":    noExpiry,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if id, err := s.Verify(tok); err == nil {
				t.Fatalf("expected rejection, got id %q", id)
			}
		})
	}
}

func TestSessionCookies_EmptySecret(t *testing.T) {
	s := NewSessionCookies(SessionOptions{})
	if _, err := s.Sign("x", time.Now()); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := s.Verify("x"); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if s.ttl != 24*time.Hour {
		t.Fatalf("default ttl = %v", s.ttl)
	}
}

func TestSessionCookies_IssueAndMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := testCookies()

	r := gin.New()
	r.Use(s.Middleware())
	r.GET("/issue", func(c *gin.Context) {
		if err := s.Issue(c, "sess-42"); err != nil {
			t.Fatalf("Issue: %v", err)
		}
		id, _ := SessionID(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/who", func(c *gin.Context) {
		id, ok := SessionID(c)
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		c.String(http.StatusOK, id)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/issue", nil))
	if w.Body.String() != "sess-42" {
		t.Fatalf("issue body = %q", w.Body.String())
	}
	setCookie := w.Header().Get("Set-Cookie")
	for _, want := range []string{SessionCookieName + "=", "HttpOnly", "SameSite=Lax", "Max-Age=3600"} {
		if !strings.Contains(setCookie, want) {
			t.Fatalf("Set-Cookie %q missing %q", setCookie, want)
		}
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.AddCookie(cookies[0])
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "sess-42" {
		t.Fatalf("who = %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tampered"})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("tampered cookie should be ignored, got %d", w.Code)
	}
}
