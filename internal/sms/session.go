package sms

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoginClient is the slice of the API client the session cache needs.
type LoginClient interface {
	Login(ctx context.Context) (Credential, error)
}

// SessionCache holds the current session credential and re-acquires it lazily
// on expiry or after an observed authentication failure. Concurrent cache
// misses collapse into a single login call; all waiters share its result.
type SessionCache struct {
	client LoginClient
	ttl    time.Duration

	mu    sync.Mutex
	cred  Credential
	valid bool

	group singleflight.Group
}

// NewSessionCache creates a cache backed by the given login client. A zero
// ttl means credentials never expire by age; they are still dropped by
// Invalidate.
func NewSessionCache(client LoginClient, ttl time.Duration) *SessionCache {
	return &SessionCache{
		client: client,
		ttl:    ttl,
	}
}

// Acquire returns a valid credential, logging in first when the cache is
// empty, expired or invalidated. Safe for concurrent use. A caller whose
// context is cancelled while waiting abandons the result; the login itself
// continues so other waiters and the cache still benefit from it.
func (s *SessionCache) Acquire(ctx context.Context) (Credential, error) {
	if cred, ok := s.cached(); ok {
		return cred, nil
	}

	ch := s.group.DoChan("login", func() (interface{}, error) {
		// Re-check under the flight: another caller may have stored a
		// credential between the miss and this call being scheduled.
		if cred, ok := s.cached(); ok {
			return cred, nil
		}

		// Detached from any single transaction's context: per-transaction
		// cancellation must not abort a login other waiters depend on.
		// The client's HTTP timeout bounds the call.
		cred, err := s.client.Login(context.WithoutCancel(ctx))
		if err != nil {
			return Credential{}, err
		}

		s.mu.Lock()
		s.cred = cred
		s.valid = true
		s.mu.Unlock()

		slog.Debug("acquired new session credential")
		return cred, nil
	})

	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	}
}

// Invalidate discards the current credential. The next Acquire forces a
// re-login. Called after the provider rejects the credential.
func (s *SessionCache) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = false
	s.cred = Credential{}
}

// cached returns the credential if present, not invalidated and within ttl.
func (s *SessionCache) cached() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid {
		return Credential{}, false
	}
	if s.ttl > 0 && time.Since(s.cred.AcquiredAt) > s.ttl {
		return Credential{}, false
	}
	return s.cred, true
}
