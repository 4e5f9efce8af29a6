package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every recognized env var for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()

	envVars := []string{
		"SMTP_LISTEN", "SMTP_HOSTNAME", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_MAX_MESSAGE_SIZE",
		"SMS_BASE_URL", "SMS_USERNAME", "SMS_PASSWORD", "SMS_SENDER", "SMS_QUALITY",
		"SMS_MAX_LENGTH", "SMS_HTTP_TIMEOUT", "SMS_SESSION_TTL", "SMS_AUTH_RETRIES",
		"TLS_CERT_FILE", "TLS_KEY_FILE", "LOG_LEVEL",
	}
	for _, env := range envVars {
		t.Setenv(env, "")
	}
}

// setRequired sets the four settings the gateway refuses to start without.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SMS_BASE_URL", "https://sms.example.com/API/v1.0/REST")
	t.Setenv("SMS_USERNAME", "john")
	t.Setenv("SMS_PASSWORD", "paswd1234")
	t.Setenv("SMS_SENDER", "ACME")
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Listen != ":2525" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":2525")
	}
	if cfg.SMTP.Hostname != "localhost" {
		t.Errorf("SMTP.Hostname: got %q, want %q", cfg.SMTP.Hostname, "localhost")
	}
	if cfg.SMTP.MaxMessageSize != 1048576 {
		t.Errorf("SMTP.MaxMessageSize: got %d, want %d", cfg.SMTP.MaxMessageSize, 1048576)
	}
	if cfg.SMS.Quality != "N" {
		t.Errorf("SMS.Quality: got %q, want %q", cfg.SMS.Quality, "N")
	}
	if cfg.SMS.MaxLength != 1000 {
		t.Errorf("SMS.MaxLength: got %d, want 1000", cfg.SMS.MaxLength)
	}
	if cfg.SMS.HTTPTimeout.Std() != 10*time.Second {
		t.Errorf("SMS.HTTPTimeout: got %v, want 10s", cfg.SMS.HTTPTimeout.Std())
	}
	if cfg.SMS.SessionTTL.Std() != 15*time.Minute {
		t.Errorf("SMS.SessionTTL: got %v, want 15m", cfg.SMS.SessionTTL.Std())
	}
	if cfg.SMS.AuthRetries != 1 {
		t.Errorf("SMS.AuthRetries: got %d, want 1", cfg.SMS.AuthRetries)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled: got true, want false")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SMS settings, got nil")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("SMTP_LISTEN", ":9025")
	t.Setenv("SMTP_HOSTNAME", "gateway.local")
	t.Setenv("SMTP_USERNAME", "admin")
	t.Setenv("SMTP_PASSWORD", "secret123")
	t.Setenv("SMTP_MAX_MESSAGE_SIZE", "524288")
	t.Setenv("SMS_QUALITY", "LL")
	t.Setenv("SMS_MAX_LENGTH", "480")
	t.Setenv("SMS_HTTP_TIMEOUT", "5s")
	t.Setenv("SMS_SESSION_TTL", "1h")
	t.Setenv("SMS_AUTH_RETRIES", "2")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Listen != ":9025" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":9025")
	}
	if cfg.SMTP.Hostname != "gateway.local" {
		t.Errorf("SMTP.Hostname: got %q, want %q", cfg.SMTP.Hostname, "gateway.local")
	}
	if cfg.SMTP.MaxMessageSize != 524288 {
		t.Errorf("SMTP.MaxMessageSize: got %d, want 524288", cfg.SMTP.MaxMessageSize)
	}
	if cfg.SMS.BaseURL != "https://sms.example.com/API/v1.0/REST" {
		t.Errorf("SMS.BaseURL: got %q, want configured URL", cfg.SMS.BaseURL)
	}
	if cfg.SMS.Quality != "LL" {
		t.Errorf("SMS.Quality: got %q, want %q", cfg.SMS.Quality, "LL")
	}
	if cfg.SMS.MaxLength != 480 {
		t.Errorf("SMS.MaxLength: got %d, want 480", cfg.SMS.MaxLength)
	}
	if cfg.SMS.HTTPTimeout.Std() != 5*time.Second {
		t.Errorf("SMS.HTTPTimeout: got %v, want 5s", cfg.SMS.HTTPTimeout.Std())
	}
	if cfg.SMS.SessionTTL.Std() != time.Hour {
		t.Errorf("SMS.SessionTTL: got %v, want 1h", cfg.SMS.SessionTTL.Std())
	}
	if cfg.SMS.AuthRetries != 2 {
		t.Errorf("SMS.AuthRetries: got %d, want 2", cfg.SMS.AuthRetries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled: got false, want true")
	}
}

func TestLoadFromFile_YAMLBaseLayer(t *testing.T) {
	clearEnv(t)

	content := `
smtp:
  listen: ":1025"
  hostname: sms-gw.internal
sms:
  base_url: https://sms.example.com/API/v1.0/REST
  username: john
  password: paswd1234
  sender: ACME
  quality: N
  http_timeout: 3s
  session_ttl: 30m
logging:
  level: warn
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Listen != ":1025" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":1025")
	}
	if cfg.SMTP.Hostname != "sms-gw.internal" {
		t.Errorf("SMTP.Hostname: got %q, want %q", cfg.SMTP.Hostname, "sms-gw.internal")
	}
	if cfg.SMS.HTTPTimeout.Std() != 3*time.Second {
		t.Errorf("SMS.HTTPTimeout: got %v, want 3s", cfg.SMS.HTTPTimeout.Std())
	}
	if cfg.SMS.SessionTTL.Std() != 30*time.Minute {
		t.Errorf("SMS.SessionTTL: got %v, want 30m", cfg.SMS.SessionTTL.Std())
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	content := `
smtp:
  listen: ":1025"
sms:
  base_url: https://sms.example.com/API/v1.0/REST
  username: john
  password: paswd1234
  sender: ACME
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("SMTP_LISTEN", ":2626")
	t.Setenv("SMS_SENDER", "OTP")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Listen != ":2626" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":2626")
	}
	if cfg.SMS.Sender != "OTP" {
		t.Errorf("SMS.Sender: got %q, want %q", cfg.SMS.Sender, "OTP")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadFromFile_BadDuration(t *testing.T) {
	clearEnv(t)

	content := `
sms:
  base_url: https://sms.example.com/API/v1.0/REST
  username: john
  password: paswd1234
  sender: ACME
  http_timeout: not-a-duration
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
}
