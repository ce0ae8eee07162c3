package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func mapSource(env map[string]string, file map[string]string) envSource {
	return envSource{
		lookup: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
		file: file,
	}
}

func required() map[string]string {
	return map[string]string{
		"MARKS_PUBLIC_URL":       "https://marks.example.com/",
		"MARKS_BACKEND_URL":      "https://xyz.supabase.co",
		"MARKS_BACKEND_ANON_KEY": "anon",
	}
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		file      map[string]string
		want      string
		wantPanic bool
	}{
		{"set in env", map[string]string{"K": "v"}, nil, "v", false},
		{"set in file", nil, map[string]string{"K": "f"}, "f", false},
		{"env wins over file", map[string]string{"K": "v"}, map[string]string{"K": "f"}, "v", false},
		{"empty env falls back to file", map[string]string{"K": ""}, map[string]string{"K": "f"}, "f", false},
		{"missing", nil, nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("require() should have panicked")
					}
				}()
			}

			got := mapSource(tt.env, tt.file).require("K")
			if !tt.wantPanic && got != tt.want {
				t.Errorf("require() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypedGetters(t *testing.T) {
	src := mapSource(map[string]string{
		"INT":      "42",
		"BAD_INT":  "forty-two",
		"DUR":      "90s",
		"BAD_DUR":  "soon",
		"BOOL":     "false",
		"BAD_BOOL": "maybe",
		"FLOAT":    "2.5",
	}, nil)

	if got := src.integer("INT", 1); got != 42 {
		t.Errorf("integer(INT) = %d, want 42", got)
	}
	if got := src.integer("BAD_INT", 7); got != 7 {
		t.Errorf("integer(BAD_INT) = %d, want default 7", got)
	}
	if got := src.duration("DUR", time.Second); got != 90*time.Second {
		t.Errorf("duration(DUR) = %v, want 90s", got)
	}
	if got := src.duration("BAD_DUR", time.Second); got != time.Second {
		t.Errorf("duration(BAD_DUR) = %v, want default", got)
	}
	if got := src.boolean("BOOL", true); got {
		t.Error("boolean(BOOL) = true, want false")
	}
	if got := src.boolean("BAD_BOOL", true); !got {
		t.Error("boolean(BAD_BOOL) should fall back to default")
	}
	if got := src.float("FLOAT", 0); got != 2.5 {
		t.Errorf("float(FLOAT) = %v, want 2.5", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "a.example.com", []string{"a.example.com"}},
		{"spaces and quotes", ` "a.example.com" , 'b.example.com' ,, `, []string{"a.example.com", "b.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitAndTrim(tt.input); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := load(mapSource(required(), nil))

	if cfg.PublicURL != "https://marks.example.com" {
		t.Errorf("PublicURL = %q, trailing slash should be trimmed", cfg.PublicURL)
	}
	if cfg.CallbackURL() != "https://marks.example.com/auth/callback" {
		t.Errorf("CallbackURL() = %q", cfg.CallbackURL())
	}
	if cfg.OAuthProvider != "google" {
		t.Errorf("OAuthProvider = %q, want google", cfg.OAuthProvider)
	}
	if cfg.RedisEnabled() {
		t.Error("Redis should be disabled without an address")
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should default to true for an https public URL")
	}
	if cfg.SessionTTL != 7*24*time.Hour || cfg.VerifierTTL != 10*time.Minute {
		t.Errorf("SessionTTL=%v VerifierTTL=%v", cfg.SessionTTL, cfg.VerifierTTL)
	}
	if cfg.PageLimit != 10000 {
		t.Errorf("PageLimit = %d, want 10000", cfg.PageLimit)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
	}{
		{"relative backend url", map[string]string{"MARKS_BACKEND_URL": "xyz.supabase.co"}},
		{"ftp public url", map[string]string{"MARKS_PUBLIC_URL": "ftp://marks.example.com"}},
		{"missing anon key", map[string]string{"MARKS_BACKEND_ANON_KEY": ""}},
		{"redis password required", map[string]string{
			"MARKS_REDIS_ADDR":              "localhost:6379",
			"MARKS_REDIS_PASSWORD_REQUIRED": "true",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := required()
			for k, v := range tt.override {
				env[k] = v
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("load() should have panicked")
				}
			}()
			load(mapSource(env, nil))
		})
	}
}

func TestRedacted(t *testing.T) {
	env := required()
	env["MARKS_REDIS_ADDR"] = "localhost:6379"
	env["MARKS_REDIS_PASSWORD"] = "hunter2"
	env["MARKS_BACKEND_JWT_SECRET"] = "jwt-secret"
	cfg := load(mapSource(env, nil))

	red := cfg.Redacted()
	if red.RedisPassword == "hunter2" || red.BackendJWTSecret == "jwt-secret" || red.BackendAnonKey == "anon" {
		t.Errorf("Redacted() leaked a secret: %+v", red)
	}
	if cfg.RedisPassword != "hunter2" {
		t.Error("Redacted() modified the original config")
	}
}

func TestParseFile(t *testing.T) {
	data := []byte(`
public_url: https://marks.example.com
backend:
  url: https://xyz.supabase.co
  anon-key: anon
  timeout: 3s
redis:
  addr: redis:6379
  db: 2
allowed_hosts:
  - marks.example.com
  - "*.example.com"
cookie_secure: false
`)
	got, err := parseFile(data)
	if err != nil {
		t.Fatalf("parseFile() error: %v", err)
	}

	want := map[string]string{
		"MARKS_PUBLIC_URL":       "https://marks.example.com",
		"MARKS_BACKEND_URL":      "https://xyz.supabase.co",
		"MARKS_BACKEND_ANON_KEY": "anon",
		"MARKS_BACKEND_TIMEOUT":  "3s",
		"MARKS_REDIS_ADDR":       "redis:6379",
		"MARKS_REDIS_DB":         "2",
		"MARKS_ALLOWED_HOSTS":    "marks.example.com,*.example.com",
		"MARKS_COOKIE_SECURE":    "false",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseFile() = %v, want %v", got, want)
	}

	if _, err := parseFile([]byte("hosts:\n  - a: b\n")); err == nil {
		t.Error("parseFile() should reject nested lists")
	}
	for _, bad := range []string{"a: [unclosed", "- just\n- a list\n"} {
		if _, err := parseFile([]byte(bad)); err == nil {
			t.Errorf("parseFile(%q) should fail", bad)
		}
	}
}

func TestLoadFileUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marks.yaml")
	content := `
public_url: https://file.example.com
backend:
  url: https://xyz.supabase.co
  anon_key: from-file
log_level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("MARKS_CONFIG_FILE", path)
	t.Setenv("MARKS_PUBLIC_URL", "")
	t.Setenv("MARKS_BACKEND_URL", "")
	t.Setenv("MARKS_BACKEND_ANON_KEY", "from-env")
	t.Setenv("MARKS_LOG_LEVEL", "")

	cfg := Load()

	if cfg.BackendAnonKey != "from-env" {
		t.Errorf("BackendAnonKey = %q, env should override the file", cfg.BackendAnonKey)
	}
	if cfg.PublicURL != "https://file.example.com" {
		t.Errorf("PublicURL = %q, want value from file", cfg.PublicURL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}
