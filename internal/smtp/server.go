// Package smtp wires the gateway handler into the emersion/go-smtp protocol
// engine. The engine owns the socket and SMTP state machine; this package
// supplies the backend invoked once per completed mail transaction.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"time"

	gosmtp "github.com/emersion/go-smtp"

	"github.com/guestgate/smtp2sms/internal/gateway"
)

// shutdownTimeout is the maximum time to wait for in-flight sessions during
// graceful shutdown.
const shutdownTimeout = 30 * time.Second

// TransactionHandler processes one completed mail transaction and resolves
// it to an SMTP completion status.
type TransactionHandler interface {
	Handle(ctx context.Context, tx *gateway.Transaction) gateway.Status
}

// ServerConfig holds the configuration for the SMTP listener.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g. ":2525").
	ListenAddr string

	// Hostname is the server name used in banner and EHLO responses.
	Hostname string

	// Handler receives each completed mail transaction.
	Handler TransactionHandler

	// TLSConfig enables STARTTLS when non-nil.
	TLSConfig *tls.Config

	// AuthUsername and AuthPassword configure SMTP AUTH.
	// If both are empty, authentication is not required.
	AuthUsername string
	AuthPassword string

	// MaxMessageBytes caps the size of an accepted message.
	MaxMessageBytes int64
}

// Server is the SMTP listener accepting mail transactions for the gateway.
type Server struct {
	srv *gosmtp.Server
}

// New creates a Server with the given configuration.
func New(cfg ServerConfig) *Server {
	if cfg.Hostname == "" {
		cfg.Hostname = "localhost"
	}

	be := &backend{
		handler: cfg.Handler,
		auth:    newAuthenticator(cfg.AuthUsername, cfg.AuthPassword),
	}

	srv := gosmtp.NewServer(be)
	srv.Addr = cfg.ListenAddr
	srv.Domain = cfg.Hostname
	srv.TLSConfig = cfg.TLSConfig
	srv.MaxMessageBytes = cfg.MaxMessageBytes
	srv.ReadTimeout = 60 * time.Second
	srv.WriteTimeout = 60 * time.Second
	// AUTH PLAIN before STARTTLS is accepted; the gateway fronts an internal
	// notification source, not the open internet.
	srv.AllowInsecureAuth = true

	return &Server{srv: srv}
}

// ListenAndServe starts the listener and blocks until the context is
// cancelled. On cancellation it stops accepting connections and waits up to
// 30 seconds for in-flight sessions to complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	slog.Info("SMTP server listening",
		"addr", s.srv.Addr,
		"hostname", s.srv.Domain,
		"tls_enabled", s.srv.TLSConfig != nil,
	)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down SMTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown timeout reached, forcing close", "error", err)
			s.srv.Close()
		}
	}()

	err := s.srv.ListenAndServe()
	if err != nil && !errors.Is(err, gosmtp.ErrServerClosed) {
		return err
	}
	return nil
}
