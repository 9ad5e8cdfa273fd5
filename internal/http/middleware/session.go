// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file manages the browser session cookie of the web chat. The cookie
// carries an HS256-signed token whose subject is the session id; a tampered,
// expired or foreign token is ignored as if no cookie was sent.
package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	// SessionCookieName is the cookie holding the signed session token.
	SessionCookieName = "session_id"

	sessionIDKey  = "sessionID"
	sessionIssuer = "go-chat-relay"
)

// SessionOptions configures the session cookie.
type SessionOptions struct {
	// Secret signs the cookie token. Must be non-empty.
	Secret []byte
	// TTL is both the cookie Max-Age and the token lifetime (default 24h).
	TTL time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// SessionCookies reads and issues session cookies.
type SessionCookies struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewSessionCookies returns a cookie manager for opts.
func NewSessionCookies(opts SessionOptions) *SessionCookies {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionCookies{secret: opts.Secret, ttl: ttl, secure: opts.Secure}
}

// Middleware stores the verified session id in the Gin context. Requests
// without a valid cookie pass through untouched.
func (s *SessionCookies) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(SessionCookieName); err == nil && raw != "" {
			if id, err := s.Verify(raw); err == nil {
				c.Set(sessionIDKey, id)
				enrichLogger(c, func(l zerolog.Context) zerolog.Context {
					return l.Str("session", truncate(id, 8))
				})
			}
		}
		c.Next()
	}
}

// Issue signs id, sets the cookie on the response and stores id in the context.
func (s *SessionCookies) Issue(c *gin.Context, id string) error {
	token, err := s.Sign(id, time.Now())
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(s.ttl/time.Second), "/", "", s.secure, true)
	c.Set(sessionIDKey, id)
	return nil
}

// Sign returns the token for id issued at now.
func (s *SessionCookies) Sign(id string, now time.Time) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("session: empty secret")
	}
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks a token and returns its session id.
func (s *SessionCookies) Verify(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("session: empty secret")
	}
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	t, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return claims.Subject, nil
}

// SessionID returns the session id attached by Middleware or Issue.
func SessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(sessionIDKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
