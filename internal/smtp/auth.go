package smtp

import (
	"crypto/subtle"
	"errors"
)

// errBadCredentials is returned for any credential mismatch; the reply never
// distinguishes a wrong username from a wrong password.
var errBadCredentials = errors.New("invalid username or password")

// authenticator verifies SMTP AUTH credentials against the configured pair.
// The SASL layer handles decoding; this only compares.
type authenticator struct {
	username string
	password string
}

// newAuthenticator creates an authenticator. If both username and password
// are empty, authentication is disabled.
func newAuthenticator(username, password string) *authenticator {
	return &authenticator{username: username, password: password}
}

// enabled reports whether AUTH credentials are configured.
func (a *authenticator) enabled() bool {
	return a.username != "" && a.password != ""
}

// verify compares the offered credentials in constant time.
func (a *authenticator) verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return errBadCredentials
	}
	return nil
}
