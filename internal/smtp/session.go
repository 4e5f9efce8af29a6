package smtp

import (
	"context"
	"io"
	"log/slog"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/guestgate/smtp2sms/internal/gateway"
)

// errTempFail is returned to the client when SMS delivery failed transiently;
// the sending mail client may retry the transaction.
var errTempFail = &gosmtp.SMTPError{
	Code:         451,
	EnhancedCode: gosmtp.EnhancedCode{4, 3, 0},
	Message:      "Temporary failure, try again later",
}

// errPermFail is returned when the transaction itself is unusable.
var errPermFail = &gosmtp.SMTPError{
	Code:         550,
	EnhancedCode: gosmtp.EnhancedCode{5, 6, 0},
	Message:      "Message rejected",
}

// errAuthRequired is returned when AUTH is configured but not completed.
var errAuthRequired = &gosmtp.SMTPError{
	Code:         530,
	EnhancedCode: gosmtp.EnhancedCode{5, 7, 0},
	Message:      "Authentication required",
}

// backend creates one session per accepted connection.
type backend struct {
	handler TransactionHandler
	auth    *authenticator
}

// NewSession implements gosmtp.Backend.
func (b *backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	slog.Debug("new SMTP connection",
		"remote", c.Conn().RemoteAddr().String(),
	)

	// The session context dies with the connection: a client aborting
	// mid-transaction cancels its own in-flight API calls and nothing else.
	ctx, cancel := context.WithCancel(context.Background())

	return &session{
		ctx:     ctx,
		cancel:  cancel,
		handler: b.handler,
		auth:    b.auth,
	}, nil
}

// session accumulates one mail transaction (MAIL FROM, RCPT TO, DATA) and
// hands it to the gateway handler when the DATA phase completes. A connection
// may carry several transactions in sequence; each gets its own id.
type session struct {
	id      uuid.UUID
	ctx     context.Context
	cancel  context.CancelFunc
	handler TransactionHandler
	auth    *authenticator

	authDone bool
	from     string
	to       []string
}

// AuthMechanisms implements gosmtp.AuthSession.
func (s *session) AuthMechanisms() []string {
	if !s.auth.enabled() {
		return nil
	}
	return []string{sasl.Plain}
}

// Auth implements gosmtp.AuthSession.
func (s *session) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if err := s.auth.verify(username, password); err != nil {
			slog.Warn("SMTP authentication failed",
				"username", username,
			)
			return err
		}
		s.authDone = true
		return nil
	}), nil
}

// Mail starts a transaction. Rejected when AUTH is configured but the client
// has not authenticated.
func (s *session) Mail(from string, opts *gosmtp.MailOptions) error {
	if s.auth.enabled() && !s.authDone {
		return errAuthRequired
	}
	s.id = uuid.New()
	s.from = from
	s.to = nil
	return nil
}

// Rcpt records a recipient. Every recipient is accepted; the gateway only
// acts on the first one, extras are ignored by design of the original
// address-is-a-phone-number scheme.
func (s *session) Rcpt(to string, opts *gosmtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

// Data receives the message content and runs the gateway handler. The
// handler's status decides the SMTP completion code: nil (250), 451 or 550.
func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	tx := &gateway.Transaction{
		From: s.from,
		To:   s.to,
		Raw:  raw,
	}

	slog.Debug("handling mail transaction",
		"txn", s.id,
		"from", tx.From,
		"recipients", len(tx.To),
		"size", len(tx.Raw),
	)

	status := s.handler.Handle(s.ctx, tx)

	slog.Info("mail transaction completed",
		"txn", s.id,
		"status", status.String(),
	)

	return statusError(status)
}

// Reset implements gosmtp.Session.
func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

// Logout implements gosmtp.Session. Called when the connection closes,
// aborting whatever this session still has in flight.
func (s *session) Logout() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// statusError maps a gateway status to the SMTP reply returned to the client.
func statusError(status gateway.Status) error {
	switch status {
	case gateway.StatusOK:
		return nil
	case gateway.StatusTempFail:
		return errTempFail
	default:
		return errPermFail
	}
}
