package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	PublicURL string // externally visible base URL, the OAuth callback hangs off it

	// Backend-as-a-service
	BackendURL       string        // ex: "https://xyz.supabase.co"
	BackendAnonKey   string        // public anon key sent as apikey
	BackendJWTSecret string        // optional, verifies access token signatures when set
	BackendTimeout   time.Duration // per-request timeout
	OAuthProvider    string        // ex: "google"

	// Sessions and pages
	SessionTTL    time.Duration // lifetime of a persisted provider session
	VerifierTTL   time.Duration // lifetime of a pending PKCE verifier
	RefreshMargin time.Duration // refresh access tokens this long before they expire
	PageIdleTTL   time.Duration // drop a browser page after this much inactivity
	GCInterval    time.Duration // how often idle pages are collected
	PageLimit     int           // max live pages, least recently seen evicted first
	CookieSecure  bool          // mark the session cookie Secure

	// Redis (optional, empty address keeps sessions in memory)
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisPasswordRequired bool
	RedisDB               int
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // max wait between connect retries
	RedisPingTimeout      time.Duration
	RedisPoolSize         int
	RedisConnectTimeout   time.Duration // total time to retry connecting
	RedisRetryInterval    time.Duration // first wait between retries, grows exponentially

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict probes to specific networks
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	AuthRateBurst  int     // requests allowed in a burst on /auth/*
	AuthRatePerMin float64 // steady refill per client IP
}

// Load reads the configuration from the environment. When MARKS_CONFIG_FILE
// points at a YAML file its values act as defaults beneath the environment.
// Missing required settings panic, as the process cannot start without them.
func Load() *Config {
	src := envSource{lookup: os.LookupEnv}
	if path := os.Getenv("MARKS_CONFIG_FILE"); path != "" {
		file, err := readFile(path)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
		src.file = file
	}
	return load(src)
}

func load(src envSource) *Config {
	publicURL := strings.TrimRight(src.require("MARKS_PUBLIC_URL"), "/")

	cfg := &Config{
		// Server settings
		ListenPort:      src.get("MARKS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: src.duration("MARKS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  src.get("MARKS_LOG_LEVEL", "info"),
		PrettyLog: src.boolean("MARKS_PRETTY_LOG", true),

		PublicURL: publicURL,

		// Backend
		BackendURL:       strings.TrimRight(src.require("MARKS_BACKEND_URL"), "/"),
		BackendAnonKey:   src.require("MARKS_BACKEND_ANON_KEY"),
		BackendJWTSecret: src.get("MARKS_BACKEND_JWT_SECRET", ""),
		BackendTimeout:   src.duration("MARKS_BACKEND_TIMEOUT", 10*time.Second),
		OAuthProvider:    src.get("MARKS_OAUTH_PROVIDER", "google"),

		// Sessions and pages
		SessionTTL:    src.duration("MARKS_SESSION_TTL", 7*24*time.Hour),
		VerifierTTL:   src.duration("MARKS_VERIFIER_TTL", 10*time.Minute),
		RefreshMargin: src.duration("MARKS_REFRESH_MARGIN", time.Minute),
		PageIdleTTL:   src.duration("MARKS_PAGE_IDLE_TTL", 30*time.Minute),
		GCInterval:    src.duration("MARKS_GC_INTERVAL", time.Minute),
		PageLimit:     src.integer("MARKS_PAGE_LIMIT", 10000),
		CookieSecure:  src.boolean("MARKS_COOKIE_SECURE", strings.HasPrefix(publicURL, "https://")),

		// Redis settings
		RedisAddr:             src.get("MARKS_REDIS_ADDR", ""),
		RedisUser:             src.get("MARKS_REDIS_USERNAME", ""),
		RedisPasswordRequired: src.boolean("MARKS_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         src.get("MARKS_REDIS_PASSWORD", ""),
		RedisDB:               src.integer("MARKS_REDIS_DB", 0),
		RedisDT:               src.duration("MARKS_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               src.duration("MARKS_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               src.duration("MARKS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          src.duration("MARKS_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      src.duration("MARKS_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         src.integer("MARKS_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   src.duration("MARKS_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    src.duration("MARKS_REDIS_RETRY_INTERVAL", 2*time.Second),

		// Access restrictions
		AllowedHosts: src.slice("MARKS_ALLOWED_HOSTS"),
		AllowedCIDRS: src.slice("MARKS_ALLOWED_CIDRS"),
		TrustProxy:   src.boolean("MARKS_TRUST_PROXY", false),

		AuthRateBurst:  src.integer("MARKS_AUTH_RATE_BURST", 10),
		AuthRatePerMin: src.float("MARKS_AUTH_RATE_PER_MIN", 30),
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func (c *Config) validate() error {
	for key, raw := range map[string]string{
		"MARKS_PUBLIC_URL":  c.PublicURL,
		"MARKS_BACKEND_URL": c.BackendURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
		}
	}
	if c.RedisAddr != "" && c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("MARKS_REDIS_PASSWORD is required when MARKS_REDIS_PASSWORD_REQUIRED=true")
	}
	return nil
}

// RedisEnabled reports whether sessions and auth events go through Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// CallbackURL is where the provider sends the browser back after sign-in.
func (c *Config) CallbackURL() string {
	return c.PublicURL + "/auth/callback"
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	const mask = "***REDACTED***"
	if cp.RedisPassword != "" {
		cp.RedisPassword = mask
	}
	if cp.BackendJWTSecret != "" {
		cp.BackendJWTSecret = mask
	}
	cp.BackendAnonKey = mask
	return cp
}

// envSource resolves settings from the environment first, then the config file.
type envSource struct {
	lookup func(string) (string, bool)
	file   map[string]string
}

func (s envSource) value(key string) string {
	if v, ok := s.lookup(key); ok && v != "" {
		return v
	}
	return s.file[key]
}

func (s envSource) get(key, def string) string {
	if v := s.value(key); v != "" {
		return v
	}
	return def
}

func (s envSource) require(key string) string {
	v := s.value(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func (s envSource) integer(key string, def int) int {
	if v := s.value(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s envSource) float(key string, def float64) float64 {
	if v := s.value(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s envSource) boolean(key string, def bool) bool {
	if v := s.value(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (s envSource) duration(key string, def time.Duration) time.Duration {
	if v := s.value(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func (s envSource) slice(key string) []string {
	return splitAndTrim(s.value(key))
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
