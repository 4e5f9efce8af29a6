package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultTimeout bounds every HTTP call when no timeout is configured.
const defaultTimeout = 10 * time.Second

// LoginError is returned when the login endpoint rejects the credentials.
type LoginError struct {
	StatusCode int
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("sms: login rejected (HTTP %d)", e.StatusCode)
}

// ClientConfig holds the settings for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://smspanel.example.com/API/v1.0/REST".
	BaseURL string

	// Username and Password authenticate the login call.
	Username string
	Password string

	// Timeout bounds each HTTP call. Zero means a 10 second default.
	Timeout time.Duration
}

// Client talks to the SMS provider's HTTP API. It is stateless; the session
// credential is managed by the SessionCache.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a Client for the given API endpoint and credentials.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login authenticates against the provider and returns a fresh credential.
// The endpoint answers a 2xx with a "user_key;session_key" body; any other
// status is a *LoginError.
func (c *Client) Login(ctx context.Context) (Credential, error) {
	loginURL := fmt.Sprintf("%s/login?username=%s&password=%s",
		c.baseURL,
		url.QueryEscape(c.username),
		url.QueryEscape(c.password),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("sms: failed to create login request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("sms: login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, fmt.Errorf("sms: failed to read login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Credential{}, &LoginError{StatusCode: resp.StatusCode}
	}

	fields := strings.Split(strings.TrimSpace(string(body)), ";")
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
		return Credential{}, fmt.Errorf("sms: malformed login response: expected user_key;session_key, got %d fields", len(fields))
	}

	return Credential{
		UserKey:    fields[0],
		SessionKey: fields[1],
		AcquiredAt: time.Now(),
	}, nil
}

// Send submits one SMS using the given credential. Every outcome, transport
// failures included, is resolved into a Result so the caller can always turn
// it into an SMTP response.
func (c *Client) Send(ctx context.Context, cred Credential, req Request) Result {
	payload := sendRequest{
		Message:       req.Message,
		MessageType:   string(req.Quality),
		ReturnCredits: req.ReturnCredits,
		Recipient:     []string{req.Recipient},
		Sender:        req.Sender,
	}

	bodyJSON, err := json.Marshal(payload)
	if err != nil {
		return Result{Status: StatusProviderError, Detail: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sms", bytes.NewReader(bodyJSON))
	if err != nil {
		return Result{Status: StatusProviderError, Detail: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("user_key", cred.UserKey)
	httpReq.Header.Set("Session_key", cred.SessionKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{Status: StatusProviderError, Detail: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: StatusProviderError, Detail: fmt.Sprintf("read response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusCreated:
		return c.parseSendResponse(respBody)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Status: StatusAuthFailed, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusBadRequest:
		return Result{Status: StatusMalformedRequest, Detail: truncateDetail(respBody)}
	default:
		return Result{
			Status: StatusProviderError,
			Detail: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncateDetail(respBody)),
		}
	}
}

// parseSendResponse interprets a 201 response body.
func (c *Client) parseSendResponse(body []byte) Result {
	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.Warn("unparseable provider response on HTTP 201",
			"error", err,
		)
		return Result{Status: StatusProviderError, Detail: fmt.Sprintf("unparseable response: %v", err)}
	}

	if parsed.Result != "OK" {
		return Result{Status: StatusProviderError, Detail: parsed.Result}
	}

	return Result{Status: StatusSent, MessageID: parsed.messageID()}
}

// maxDetailLen caps how much of a provider response body ends up in logs.
const maxDetailLen = 512

func truncateDetail(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetailLen {
		return s[:maxDetailLen]
	}
	return s
}
