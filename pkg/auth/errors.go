package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a caller contract violation such as a
	// non-positive iteration count, key length or secret length.
	ErrInvalidArgument = errors.New("auth: invalid argument")

	// ErrSignatureMismatch is returned by Verify when the signature does not
	// answer the challenge.
	ErrSignatureMismatch = errors.New("auth: signature mismatch")
)

// DerivationError is returned when the key-stretching primitive refuses the
// requested parameters. Adjusting the parameters is up to the caller.
type DerivationError struct {
	Iterations int
	KeyLength  int
	Err        error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("auth: deriving key (iterations=%d, keylen=%d): %v", e.Iterations, e.KeyLength, e.Err)
}

func (e *DerivationError) Unwrap() error {
	return e.Err
}

// AuthenticationError aborts a handshake. Reason describes the step that
// failed; Err is the underlying cause.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "auth: authentication failed: " + e.Reason
	}
	return fmt.Sprintf("auth: authentication failed: %s: %v", e.Reason, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
