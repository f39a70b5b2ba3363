package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	// ErrJoinCodeMismatch indicates a device presented the wrong join code.
	ErrJoinCodeMismatch = errors.New("auth: join code mismatch")
	// ErrJoinCodeUnset indicates the server has no join code configured.
	ErrJoinCodeUnset = errors.New("auth: join code is not configured")
)

// JoinCodeVerifier checks the household join code devices enroll with. The
// comparison is constant time.
type JoinCodeVerifier struct {
	code []byte
}

// NewJoinCodeVerifier constructs a verifier for the configured code.
func NewJoinCodeVerifier(code string) (*JoinCodeVerifier, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrJoinCodeUnset
	}
	return &JoinCodeVerifier{code: []byte(trimmed)}, nil
}

// Verify reports whether the presented code matches.
func (v *JoinCodeVerifier) Verify(presented string) error {
	candidate := []byte(strings.TrimSpace(presented))
	if subtle.ConstantTimeCompare(v.code, candidate) != 1 {
		return ErrJoinCodeMismatch
	}
	return nil
}
