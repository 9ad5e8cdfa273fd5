// Package config provides application configuration loaded from environment
// variables with defaults and validation: server timeouts, logging, storage,
// the web session cookie, the completion gateway, the WhatsApp channels, rate
// limiting and observability.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-chat-relay")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the conversation store backend.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH, sqlite file
	DSN    string // DB_DSN, postgres connection string
}

// SessionConfig configures the signed web session cookie.
type SessionConfig struct {
	Secret       string        // SESSION_SECRET
	TTL          time.Duration // SESSION_TTL
	CookieSecure bool          // COOKIE_SECURE

	// SecretGenerated is set when SESSION_SECRET was empty and a random
	// per-process secret was used instead.
	SecretGenerated bool
}

// LLMConfig configures the completion gateway.
type LLMConfig struct {
	Provider    string        // LLM_PROVIDER: openai|anthropic
	BaseURL     string        // LLM_BASE_URL
	APIKey      string        // LLM_API_KEY
	Model       string        // LLM_MODEL
	Temperature float64       // LLM_TEMPERATURE
	TopP        float64       // LLM_TOP_P
	MaxTokens   int           // LLM_MAX_TOKENS
	Timeout     time.Duration // LLM_TIMEOUT
}

// WhatsAppConfig configures the WhatsApp webhooks.
type WhatsAppConfig struct {
	ArchivePath string // WEBHOOK_ARCHIVE_PATH, raw payload log ("" disables)
	ImagesDir   string // IMAGES_DIR, decoded attachments

	TwilioAccountSID   string // TWILIO_ACCOUNT_SID
	TwilioAuthToken    string // TWILIO_AUTH_TOKEN, enables /webhook/twilio
	TwilioWhatsAppFrom string // TWILIO_WHATSAPP_FROM
	PublicBaseURL      string // PUBLIC_BASE_URL, used to verify Twilio signatures
}

// TwilioEnabled reports whether the Twilio webhook should be mounted.
func (w WhatsAppConfig) TwilioEnabled() bool { return w.TwilioAuthToken != "" }

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	// Storage
	DB DBConfig

	// Conversation
	HistoryWindow int // messages of context sent to the model

	// Channels
	Session  SessionConfig
	LLM      LLMConfig
	WhatsApp WhatsAppConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		// Storage
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "chat_history.db"),
			DSN:    getenv("DB_DSN", ""),
		},

		HistoryWindow: getint("HISTORY_WINDOW", 10),

		Session: SessionConfig{
			Secret:       getenv("SESSION_SECRET", ""),
			TTL:          getdur("SESSION_TTL", 24*time.Hour),
			CookieSecure: getbool("COOKIE_SECURE", false),
		},

		LLM: LLMConfig{
			Provider:    strings.ToLower(getenv("LLM_PROVIDER", "openai")),
			BaseURL:     getenv("LLM_BASE_URL", "http://localhost:11434/v1"),
			APIKey:      getenv("LLM_API_KEY", ""),
			Model:       getenv("LLM_MODEL", "qwen"),
			Temperature: getfloat("LLM_TEMPERATURE", 0.7),
			TopP:        getfloat("LLM_TOP_P", 0.95),
			MaxTokens:   getint("LLM_MAX_TOKENS", 1024),
			Timeout:     getdur("LLM_TIMEOUT", 60*time.Second),
		},

		WhatsApp: WhatsAppConfig{
			ArchivePath:        getenv("WEBHOOK_ARCHIVE_PATH", "whatsapp.txt"),
			ImagesDir:          getenv("IMAGES_DIR", "images"),
			TwilioAccountSID:   getenv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:    getenv("TWILIO_AUTH_TOKEN", ""),
			TwilioWhatsAppFrom: getenv("TWILIO_WHATSAPP_FROM", ""),
			PublicBaseURL:      getenv("PUBLIC_BASE_URL", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-chat-relay"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "sqlite3" {
		cfg.DB.Driver = "sqlite"
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = randomSecret()
		cfg.Session.SecretGenerated = true
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return cfg, errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.HistoryWindow < 1 {
		return cfg, errors.New("HISTORY_WINDOW must be >= 1")
	}
	if cfg.Session.TTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	switch cfg.LLM.Provider {
	case "openai", "anthropic":
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: openai, anthropic")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.LLM.MaxTokens < 1 {
		return cfg, errors.New("LLM_MAX_TOKENS must be >= 1")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return cfg, errors.New("LLM_TEMPERATURE must be in [0,2]")
	}
	if cfg.LLM.TopP < 0 || cfg.LLM.TopP > 1 {
		return cfg, errors.New("LLM_TOP_P must be in [0,1]")
	}
	if strings.TrimSpace(cfg.WhatsApp.ImagesDir) == "" {
		return cfg, errors.New("IMAGES_DIR must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// randomSecret returns 32 random bytes, hex encoded.
func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
