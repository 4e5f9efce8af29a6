// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the gateway.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultMaxMessageSize is 1 MB in bytes. OTP notification mails are tiny;
// anything larger is not going to fit in an SMS anyway.
const defaultMaxMessageSize = 1048576

// Duration parses YAML duration strings like "10s" or "15m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the complete application configuration.
type Config struct {
	SMTP    SMTPConfig    `yaml:"smtp"`
	SMS     SMSConfig     `yaml:"sms"`
	TLS     TLSConfig     `yaml:"tls"`
	Logging LoggingConfig `yaml:"logging"`
}

// SMTPConfig holds the SMTP listener configuration.
type SMTPConfig struct {
	Listen         string `yaml:"listen"`
	Hostname       string `yaml:"hostname"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxMessageSize int64  `yaml:"max_message_size"`
}

// SMSConfig holds the SMS provider API configuration.
type SMSConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	Sender      string   `yaml:"sender"`
	Quality     string   `yaml:"quality"`
	MaxLength   int      `yaml:"max_length"`
	HTTPTimeout Duration `yaml:"http_timeout"`
	SessionTTL  Duration `yaml:"session_ttl"`
	AuthRetries int      `yaml:"auth_retries"`
}

// TLSConfig holds TLS certificate file paths for STARTTLS.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer, then
// overrides with environment variables. Returns an error if the specified
// file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuthEnabled returns true if both SMTP username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.SMTP.Username != "" && c.SMTP.Password != ""
}

// validate checks the settings the gateway cannot run without. Process exit
// on bad configuration is a startup concern; nothing at runtime re-validates.
func (c *Config) validate() error {
	var missing []string

	if c.SMS.BaseURL == "" {
		missing = append(missing, "sms.base_url (SMS_BASE_URL)")
	}
	if c.SMS.Username == "" {
		missing = append(missing, "sms.username (SMS_USERNAME)")
	}
	if c.SMS.Password == "" {
		missing = append(missing, "sms.password (SMS_PASSWORD)")
	}
	if c.SMS.Sender == "" {
		missing = append(missing, "sms.sender (SMS_SENDER)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SMTP.Listen = ":2525"
	c.SMTP.Hostname = "localhost"
	c.SMTP.MaxMessageSize = defaultMaxMessageSize
	c.SMS.Quality = "N"
	c.SMS.MaxLength = 1000
	c.SMS.HTTPTimeout = Duration(10 * time.Second)
	c.SMS.SessionTTL = Duration(15 * time.Minute)
	c.SMS.AuthRetries = 1
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("SMTP_LISTEN"); v != "" {
		c.SMTP.Listen = v
	}
	if v := os.Getenv("SMTP_HOSTNAME"); v != "" {
		c.SMTP.Hostname = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_MAX_MESSAGE_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.SMTP.MaxMessageSize = size
		}
	}

	if v := os.Getenv("SMS_BASE_URL"); v != "" {
		c.SMS.BaseURL = v
	}
	if v := os.Getenv("SMS_USERNAME"); v != "" {
		c.SMS.Username = v
	}
	if v := os.Getenv("SMS_PASSWORD"); v != "" {
		c.SMS.Password = v
	}
	if v := os.Getenv("SMS_SENDER"); v != "" {
		c.SMS.Sender = v
	}
	if v := os.Getenv("SMS_QUALITY"); v != "" {
		c.SMS.Quality = v
	}
	if v := os.Getenv("SMS_MAX_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SMS.MaxLength = n
		}
	}
	if v := os.Getenv("SMS_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SMS.HTTPTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SMS_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SMS.SessionTTL = Duration(d)
		}
	}
	if v := os.Getenv("SMS_AUTH_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SMS.AuthRetries = n
		}
	}

	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
