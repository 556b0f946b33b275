// Package auth implements WAMP challenge-response authentication (WAMP-CRA).
//
// A router issues a challenge string. The client either holds the shared
// secret directly and answers with ComputeDigest(secret, challenge), or it
// holds a weaker pre-shared secret and first stretches it with DeriveKey
// using the salt and iteration count the router announced:
//
//	key, err := auth.DeriveKey(secret, salt, iterations, keyLength)
//	if err != nil {
//	    // abort the handshake
//	}
//	signature := auth.ComputeDigest([]byte(key), challenge)
//
// Respond wraps both cases for a Challenge. GenerateSecret provisions new
// shared secrets offline; it is not part of the live handshake.
//
// DeriveKey is CPU bound with cost proportional to the iteration count and
// should not run on latency-sensitive goroutines. Secrets are never logged or
// retained by this package.
package auth

import (
	"fmt"

	"github.com/backkem/wamp/pkg/crypto"
)

// WAMP-CRA defaults for salted challenges that omit parameters.
const (
	// DefaultIterations is the PBKDF2 iteration count used when a salted
	// challenge does not specify one.
	DefaultIterations = 1000

	// DefaultKeyLength is the derived key length in bytes used when a salted
	// challenge does not specify one.
	DefaultKeyLength = 32

	// DigestSize is the raw length of every digest before encoding.
	DigestSize = crypto.SHA256LenBytes
)

// DeriveKey stretches secret with salt using PBKDF2-HMAC-SHA256 and returns
// the keyLength-byte result in its transport-safe text form.
//
// Identical inputs always produce identical output. Non-positive iterations
// or keyLength are rejected with an error wrapping ErrInvalidArgument. If the
// primitive refuses the parameters a *DerivationError is returned; no retry is
// attempted.
func DeriveKey(secret, salt []byte, iterations, keyLength int) (string, error) {
	if iterations <= 0 {
		return "", fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidArgument, iterations)
	}
	if keyLength <= 0 {
		return "", fmt.Errorf("%w: key length must be positive, got %d", ErrInvalidArgument, keyLength)
	}

	raw, err := crypto.PBKDF2SHA256(secret, salt, iterations, keyLength)
	if err != nil {
		return "", &DerivationError{Iterations: iterations, KeyLength: keyLength, Err: err}
	}
	return crypto.Encode(raw), nil
}

// DeriveKeyString is DeriveKey for text secrets and salts.
func DeriveKeyString(secret, salt string, iterations, keyLength int) (string, error) {
	return DeriveKey([]byte(secret), []byte(salt), iterations, keyLength)
}

// ComputeDigest returns the HMAC-SHA256 of challenge keyed by key, in
// transport-safe text form. The key is either the shared secret or the text
// returned by DeriveKey. The raw digest is always DigestSize bytes.
func ComputeDigest(key, challenge []byte) string {
	return crypto.Encode(crypto.HMACSHA256Slice(key, challenge))
}

// ComputeDigestString is ComputeDigest for text keys and challenges.
func ComputeDigestString(key, challenge string) string {
	return ComputeDigest([]byte(key), []byte(challenge))
}
