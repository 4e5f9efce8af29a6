package gateway

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/guestgate/smtp2sms/internal/extract"
	"github.com/guestgate/smtp2sms/internal/sms"
)

// Sender is the slice of the SMS API client the handler needs.
type Sender interface {
	Send(ctx context.Context, cred sms.Credential, req sms.Request) sms.Result
}

// CredentialSource supplies session credentials and accepts invalidation
// after an observed authentication failure.
type CredentialSource interface {
	Acquire(ctx context.Context) (sms.Credential, error)
	Invalidate()
}

// HandlerConfig holds the per-message settings applied to every SMS.
type HandlerConfig struct {
	// Sender is the display name shown as the SMS originator.
	Sender string

	// Quality is the delivery quality class.
	Quality sms.Quality

	// ReturnCredits asks the provider to report remaining credits.
	ReturnCredits bool

	// MaxLength truncates the message body to the provider's limit.
	// Zero means no truncation.
	MaxLength int

	// AuthRetries is how many times a send is retried with a fresh
	// credential after the provider rejects the cached one.
	AuthRetries int
}

// Handler turns one completed mail transaction into one SMS submission and
// resolves every outcome into an SMTP completion status. It never terminates
// the process; a failed delivery affects only its own transaction.
type Handler struct {
	client   Sender
	sessions CredentialSource
	cfg      HandlerConfig
}

// NewHandler creates a Handler submitting through client with credentials
// from sessions.
func NewHandler(client Sender, sessions CredentialSource, cfg HandlerConfig) *Handler {
	if cfg.AuthRetries < 0 {
		cfg.AuthRetries = 0
	}
	return &Handler{
		client:   client,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Handle processes one mail transaction: extract recipient and body, build
// the SMS request, submit it with the cached session credential, and map the
// result to an SMTP status. An auth failure invalidates the session cache and
// is retried a bounded number of times with a fresh credential.
func (h *Handler) Handle(ctx context.Context, tx *Transaction) Status {
	content, err := extract.Extract(tx.To, tx.Raw)
	if err != nil {
		slog.Warn("rejecting transaction",
			"from", tx.From,
			"error", err,
		)
		return StatusPermFail
	}

	if content.Body == "" {
		slog.Warn("rejecting transaction with empty message body",
			"from", tx.From,
			"recipient", content.Recipient,
		)
		return StatusPermFail
	}

	req := h.buildRequest(content)

	result := h.submit(ctx, req)

	switch result.Status {
	case sms.StatusSent:
		slog.Info("sms sent",
			"recipient", req.Recipient,
			"message_id", result.MessageID,
		)
		return StatusOK
	case sms.StatusMalformedRequest:
		slog.Error("provider rejected request as malformed",
			"recipient", req.Recipient,
			"detail", result.Detail,
		)
		return StatusPermFail
	default:
		slog.Error("sms delivery failed",
			"recipient", req.Recipient,
			"status", result.Status,
			"detail", result.Detail,
		)
		return StatusTempFail
	}
}

// buildRequest assembles the SMS request from extracted content and the
// configured message settings.
func (h *Handler) buildRequest(content extract.Content) sms.Request {
	body := content.Body
	if h.cfg.MaxLength > 0 && len(body) > h.cfg.MaxLength {
		// Cut on a rune boundary so a multi-byte character is never split.
		cut := h.cfg.MaxLength
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}

	return sms.Request{
		Recipient:     content.Recipient,
		Message:       body,
		Quality:       h.cfg.Quality,
		Sender:        h.cfg.Sender,
		ReturnCredits: h.cfg.ReturnCredits,
	}
}

// submit sends the request, refreshing the session credential and retrying
// when the provider rejects the cached one. A credential that fails again
// after a forced re-login is terminal for this transaction.
func (h *Handler) submit(ctx context.Context, req sms.Request) sms.Result {
	cred, err := h.sessions.Acquire(ctx)
	if err != nil {
		return sms.Result{Status: sms.StatusAuthFailed, Detail: err.Error()}
	}

	result := h.client.Send(ctx, cred, req)

	for attempt := 0; attempt < h.cfg.AuthRetries && result.Status == sms.StatusAuthFailed; attempt++ {
		slog.Info("session credential rejected, re-authenticating",
			"attempt", attempt+1,
		)
		h.sessions.Invalidate()

		cred, err = h.sessions.Acquire(ctx)
		if err != nil {
			return sms.Result{Status: sms.StatusAuthFailed, Detail: err.Error()}
		}

		result = h.client.Send(ctx, cred, req)
	}

	return result
}
