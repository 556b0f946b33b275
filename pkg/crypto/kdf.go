package crypto

import (
	"crypto/sha256"
	"math"

	"golang.org/x/crypto/pbkdf2"
)

// MaxPBKDF2KeyLength is the largest output PBKDF2-HMAC-SHA256 is defined for
// (RFC 8018 Section 5.2: dkLen <= (2^32 - 1) * hLen). On 32-bit platforms the
// limit is capped by the int range instead.
const MaxPBKDF2KeyLength = uint64(math.MaxUint32) * SHA256LenBytes

// PBKDF2SHA256 stretches a password into keyLen bytes using PBKDF2 with
// HMAC-SHA256 as the pseudorandom function (RFC 8018).
//
// Parameters:
//   - password: The secret to stretch
//   - salt: Salt value, used as-is
//   - iterations: Number of iterations, must be > 0
//   - keyLen: Number of bytes to derive, must be > 0
//
// The cost is linear in iterations. The underlying primitive never reports
// failure itself, so parameter checks happen here.
func PBKDF2SHA256(password, salt []byte, iterations, keyLen int) ([]byte, error) {
	if iterations <= 0 {
		return nil, ErrInvalidIterations
	}
	if keyLen <= 0 {
		return nil, ErrInvalidKeyLength
	}
	if uint64(keyLen) > MaxPBKDF2KeyLength {
		return nil, ErrKeyTooLong
	}
	return pbkdf2.Key(password, salt, iterations, keyLen, sha256.New), nil
}
