// Package extract derives the SMS destination and body from a mail transaction.
//
// The recipient phone number is the local-part of the first envelope recipient
// (e.g. 15551234567@gateway.local addresses the number 15551234567). The body
// is taken from the first text/plain MIME part of the message; anything without
// a plain-text part is rejected rather than guessed at.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime"
)

var (
	// ErrNoRecipient is returned when the transaction carries no recipients.
	ErrNoRecipient = errors.New("extract: transaction has no recipient")

	// ErrInvalidRecipient is returned when the first recipient's local-part
	// is not a phone number (digits with an optional leading +).
	ErrInvalidRecipient = errors.New("extract: recipient local-part is not a phone number")

	// ErrUnsupportedContent is returned when the message has no text/plain
	// part to forward.
	ErrUnsupportedContent = errors.New("extract: message has no plain-text part")
)

// Content is the extracted payload of a mail transaction.
type Content struct {
	// Recipient is the destination phone number.
	Recipient string

	// Body is the SMS text, whitespace-trimmed.
	Body string
}

// Extract derives the SMS recipient and body from the envelope recipients
// and raw message of a mail transaction. It performs no I/O.
func Extract(to []string, raw []byte) (Content, error) {
	recipient, err := recipientNumber(to)
	if err != nil {
		return Content{}, err
	}

	body, err := plainTextBody(raw)
	if err != nil {
		return Content{}, err
	}

	return Content{Recipient: recipient, Body: body}, nil
}

// recipientNumber extracts the phone number from the first recipient address.
func recipientNumber(to []string) (string, error) {
	if len(to) == 0 {
		return "", ErrNoRecipient
	}

	localPart, _, _ := strings.Cut(to[0], "@")
	if !validNumber(localPart) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, localPart)
	}

	return localPart, nil
}

// validNumber reports whether s is a phone number: one or more digits,
// optionally prefixed with +.
func validNumber(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// plainTextBody parses the raw message and returns the content of its first
// text/plain part. MIME transfer encodings and charsets are decoded by the
// envelope parser.
func plainTextBody(raw []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedContent, err)
	}

	part := env.Root.DepthMatchFirst(func(p *enmime.Part) bool {
		return p.ContentType == "text/plain"
	})
	if part == nil {
		return "", ErrUnsupportedContent
	}

	return strings.TrimSpace(string(part.Content)), nil
}
