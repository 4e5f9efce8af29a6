// Package sms implements the HTTP client for the session-keyed SMS API and
// the process-wide session credential cache.
package sms

import "time"

// Quality selects the delivery quality class of an SMS.
type Quality string

const (
	// QualityHigh is the high-quality delivery class.
	QualityHigh Quality = "N"

	// QualityStandard is the standard delivery class.
	QualityStandard Quality = "LL"
)

// Credential is the provider-issued key pair authorizing SMS submission.
// It is owned by the SessionCache and shared by concurrent requests.
type Credential struct {
	UserKey    string
	SessionKey string
	AcquiredAt time.Time
}

// Request is one SMS submission. It is constructed once per mail transaction
// and never with an empty recipient or message.
type Request struct {
	Recipient     string
	Message       string
	Quality       Quality
	Sender        string
	ReturnCredits bool
}

// Status is the outcome class of a Send call.
type Status int

const (
	// StatusSent means the provider accepted the message.
	StatusSent Status = iota

	// StatusAuthFailed means the credential was rejected; the caller must
	// invalidate the session cache before retrying.
	StatusAuthFailed

	// StatusProviderError covers provider rejections, unexpected statuses
	// and transport failures (timeout, refused connection, TLS errors).
	StatusProviderError

	// StatusMalformedRequest means the provider classified the request
	// itself as invalid.
	StatusMalformedRequest
)

// String returns a short name for logging.
func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusAuthFailed:
		return "auth_failed"
	case StatusProviderError:
		return "provider_error"
	case StatusMalformedRequest:
		return "malformed_request"
	default:
		return "unknown"
	}
}

// Result is the outcome of a Send call, carrying the provider message id
// when one was assigned and a detail string for logging on failure.
type Result struct {
	Status    Status
	MessageID string
	Detail    string
}

// sendRequest is the JSON body of the POST {base}/sms call.
type sendRequest struct {
	Message       string   `json:"message"`
	MessageType   string   `json:"message_type"`
	ReturnCredits bool     `json:"returnCredits"`
	Recipient     []string `json:"recipient"`
	Sender        string   `json:"sender"`
}

// sendResponse is the JSON body the provider returns on HTTP 201. The result
// field is "OK" on success; anything else is a provider-side rejection.
type sendResponse struct {
	Result          string `json:"result"`
	OrderID         string `json:"order_id"`
	InternalOrderID string `json:"internal_order_id"`
}

// messageID returns the provider-assigned id, preferring the public order id.
func (r *sendResponse) messageID() string {
	if r.OrderID != "" {
		return r.OrderID
	}
	return r.InternalOrderID
}
