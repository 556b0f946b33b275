// Package crypto provides the primitives consumed by WAMP challenge-response
// authentication: HMAC-SHA-256, PBKDF2-HMAC-SHA-256 and the single-line
// radix-64 text encoding used to embed keys and digests in protocol messages.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// SHA256LenBytes is the SHA-256 output length in bytes. Every CRA digest has
// exactly this raw length before encoding.
const SHA256LenBytes = 32

// HMACSHA256 computes the HMAC-SHA256 of a message using the given key.
// Keys and messages of any length are accepted.
func HMACSHA256(key, message []byte) [SHA256LenBytes]byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	var result [SHA256LenBytes]byte
	copy(result[:], h.Sum(nil))
	return result
}

// HMACSHA256Slice computes the HMAC-SHA256 and returns it as a slice.
func HMACSHA256Slice(key, message []byte) []byte {
	mac := HMACSHA256(key, message)
	return mac[:]
}

// HMACEqual compares two MACs in constant time.
func HMACEqual(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}
