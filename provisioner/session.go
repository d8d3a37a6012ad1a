package provisioner

import (
	"errors"
	"fmt"

	"go.uber.org/atomic"
)

var (
	// ErrSessionValueSet is returned when a session value is written twice.
	ErrSessionValueSet = errors.New("session value already set")

	// ErrSessionValueUnset is returned when reading a session value before it was written.
	ErrSessionValueUnset = errors.New("session value not set")
)

// Session carries the values produced by one provisioning run: the admin
// token and the realm public key. Each is written exactly once and read
// by every later stage. A Session is never shared between runs.
type Session struct {
	token     atomic.String
	publicKey atomic.String
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) SetToken(token string) error {
	return setOnce(&s.token, "admin token", token)
}

func (s *Session) Token() (string, error) {
	return get(&s.token, "admin token")
}

// SetPublicKey stores the PEM-wrapped realm public key.
func (s *Session) SetPublicKey(pem string) error {
	return setOnce(&s.publicKey, "realm public key", pem)
}

func (s *Session) PublicKey() (string, error) {
	return get(&s.publicKey, "realm public key")
}

func setOnce(v *atomic.String, name, value string) error {
	if value == "" {
		return fmt.Errorf("%s: empty value", name)
	}
	if !v.CompareAndSwap("", value) {
		return fmt.Errorf("%s: %w", name, ErrSessionValueSet)
	}
	return nil
}

func get(v *atomic.String, name string) (string, error) {
	value := v.Load()
	if value == "" {
		return "", fmt.Errorf("%s: %w", name, ErrSessionValueUnset)
	}
	return value, nil
}
