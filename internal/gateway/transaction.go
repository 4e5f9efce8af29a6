// Package gateway bridges completed SMTP mail transactions to the SMS API.
package gateway

// Transaction is one complete SMTP envelope and message as handed over by
// the listener after the DATA phase. It is immutable and consumed exactly once.
type Transaction struct {
	// From is the envelope sender address (MAIL FROM).
	From string

	// To holds the envelope recipient addresses (RCPT TO) in the order they
	// were given. Only the first recipient is meaningful to the gateway;
	// extra recipients are accepted and ignored.
	To []string

	// Raw is the message content as received, headers included.
	Raw []byte
}

// Status is the SMTP completion status the gateway resolves a transaction to.
// Every failure mode maps onto one of these; nothing in the mail-to-SMS path
// escalates beyond the transaction it belongs to.
type Status int

const (
	// StatusOK means the SMS was accepted by the provider (SMTP 250).
	StatusOK Status = iota

	// StatusTempFail means a transient provider or auth problem; the mail
	// client may retry the transaction later (SMTP 451).
	StatusTempFail

	// StatusPermFail means the transaction itself is unusable and retrying
	// will not help (SMTP 550).
	StatusPermFail
)

// String returns a short name for logging.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTempFail:
		return "tempfail"
	case StatusPermFail:
		return "permfail"
	default:
		return "unknown"
	}
}
