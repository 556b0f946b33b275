package crypto

import "errors"

// Errors reported by the key-stretching and encoding primitives.
var (
	// ErrInvalidIterations is returned when the PBKDF2 iteration count is not positive.
	ErrInvalidIterations = errors.New("crypto: iteration count must be positive")

	// ErrInvalidKeyLength is returned when the requested key length is not positive.
	ErrInvalidKeyLength = errors.New("crypto: key length must be positive")

	// ErrKeyTooLong is returned when the requested key length exceeds what
	// PBKDF2 can produce with SHA-256 ((2^32 - 1) * 32 bytes).
	ErrKeyTooLong = errors.New("crypto: derived key too long")

	// ErrInvalidEncoding is returned when text cannot be decoded.
	ErrInvalidEncoding = errors.New("crypto: invalid encoding")
)
