// Package main is the entry point for the SMTP-to-SMS gateway.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/guestgate/smtp2sms/internal/config"
	"github.com/guestgate/smtp2sms/internal/gateway"
	"github.com/guestgate/smtp2sms/internal/sms"
	"github.com/guestgate/smtp2sms/internal/smtp"
	smtptls "github.com/guestgate/smtp2sms/internal/tls"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Pick up a local .env file when present; env vars win either way.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging.Level)

	tlsConfig, err := smtptls.Load(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		slog.Error("failed to setup TLS", "error", err)
		os.Exit(1)
	}

	tlsMode := "self-signed"
	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		tlsMode = "file"
	}

	client := sms.NewClient(sms.ClientConfig{
		BaseURL:  cfg.SMS.BaseURL,
		Username: cfg.SMS.Username,
		Password: cfg.SMS.Password,
		Timeout:  cfg.SMS.HTTPTimeout.Std(),
	})

	sessions := sms.NewSessionCache(client, cfg.SMS.SessionTTL.Std())

	handler := gateway.NewHandler(client, sessions, gateway.HandlerConfig{
		Sender:      cfg.SMS.Sender,
		Quality:     sms.Quality(cfg.SMS.Quality),
		MaxLength:   cfg.SMS.MaxLength,
		AuthRetries: cfg.SMS.AuthRetries,
	})

	server := smtp.New(smtp.ServerConfig{
		ListenAddr:      cfg.SMTP.Listen,
		Hostname:        cfg.SMTP.Hostname,
		Handler:         handler,
		TLSConfig:       tlsConfig,
		AuthUsername:    cfg.SMTP.Username,
		AuthPassword:    cfg.SMTP.Password,
		MaxMessageBytes: cfg.SMTP.MaxMessageSize,
	})

	slog.Info("starting smtp2sms gateway",
		"listen", cfg.SMTP.Listen,
		"sms_api", cfg.SMS.BaseURL,
		"sender", cfg.SMS.Sender,
		"auth_enabled", cfg.AuthEnabled(),
		"tls_mode", tlsMode,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Start the server (blocks until context is cancelled)
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("smtp2sms gateway stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
