package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// DefaultSecretLength is the length of secrets produced by NewSecret.
const DefaultSecretLength = 14

// SecretAlphabet holds the 62 symbols generated secrets are drawn from.
const SecretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Bytes at or above this value are rejected so that every symbol of the
// alphabet is equally likely (256 - 256%62).
const maxUnbiasedByte = 256 - 256%len(SecretAlphabet)

// SecretGenerator draws secrets from a random source. It is safe for
// concurrent use; draws are serialized so an unsynchronized source is never
// read from two goroutines at once.
type SecretGenerator struct {
	mu   sync.Mutex
	rand io.Reader
}

// NewSecretGenerator returns a generator reading from r. The source must be
// unpredictable; crypto/rand.Reader is the expected choice outside tests.
func NewSecretGenerator(r io.Reader) *SecretGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &SecretGenerator{rand: r}
}

// defaultGenerator is the process-wide source behind GenerateSecret.
var defaultGenerator = NewSecretGenerator(rand.Reader)

// GenerateSecret returns a new random secret of length characters drawn
// uniformly and independently from SecretAlphabet, using the process-wide
// cryptographically secure source.
func GenerateSecret(length int) (string, error) {
	return defaultGenerator.Generate(length)
}

// NewSecret returns a GenerateSecret(DefaultSecretLength) secret.
func NewSecret() (string, error) {
	return GenerateSecret(DefaultSecretLength)
}

// Generate returns a secret of length characters from SecretAlphabet.
func (g *SecretGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: secret length must be positive, got %d", ErrInvalidArgument, length)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]byte, 0, length)
	// Rejection discards about 3% of bytes; a little headroom avoids most
	// second reads.
	buf := make([]byte, length+length/8+1)
	for len(out) < length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("auth: reading random source: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			out = append(out, SecretAlphabet[int(b)%len(SecretAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
