package auth

import "github.com/backkem/wamp/pkg/crypto"

// Challenge is what a router sends in a WAMP-CRA CHALLENGE message. Salt,
// Iterations and KeyLength are present only when the router stores derived
// keys rather than the secrets themselves.
type Challenge struct {
	// Challenge is the opaque string to be signed.
	Challenge string

	// Salt enables key derivation when non-empty.
	Salt string

	// Iterations is the PBKDF2 iteration count. Zero means DefaultIterations.
	Iterations int

	// KeyLength is the derived key length in bytes. Zero means DefaultKeyLength.
	KeyLength int
}

// Salted reports whether the secret must be stretched with DeriveKey before
// signing.
func (c Challenge) Salted() bool {
	return c.Salt != ""
}

func (c Challenge) iterations() int {
	if c.Iterations == 0 {
		return DefaultIterations
	}
	return c.Iterations
}

func (c Challenge) keyLength() int {
	if c.KeyLength == 0 {
		return DefaultKeyLength
	}
	return c.KeyLength
}

// SigningKey returns the key a client signs c with: the secret itself, or
// the text form of the derived key for salted challenges.
func (c Challenge) SigningKey(secret []byte) ([]byte, error) {
	if !c.Salted() {
		return secret, nil
	}
	key, err := DeriveKey(secret, []byte(c.Salt), c.iterations(), c.keyLength())
	if err != nil {
		return nil, &AuthenticationError{Reason: "deriving key for salted challenge", Err: err}
	}
	return []byte(key), nil
}

// Respond computes the signature a client sends in its AUTHENTICATE
// message. Any failure aborts the handshake with an *AuthenticationError;
// a signature is never produced from a wrong key.
func Respond(secret []byte, c Challenge) (string, error) {
	key, err := c.SigningKey(secret)
	if err != nil {
		return "", err
	}
	return ComputeDigest(key, []byte(c.Challenge)), nil
}

// Verify checks, on the router side, that signature answers c for secret.
// A mismatch is reported as an *AuthenticationError wrapping
// ErrSignatureMismatch.
func Verify(secret []byte, c Challenge, signature string) error {
	key, err := c.SigningKey(secret)
	if err != nil {
		return err
	}
	return VerifyDigest(key, []byte(c.Challenge), signature)
}

// VerifyDigest checks signature against the digest of challenge under key.
// Routers that store derived keys instead of secrets call this directly with
// the stored key text. The comparison runs in constant time.
func VerifyDigest(key, challenge []byte, signature string) error {
	expected := ComputeDigest(key, challenge)
	if !crypto.HMACEqual([]byte(expected), []byte(signature)) {
		return &AuthenticationError{Reason: "verifying signature", Err: ErrSignatureMismatch}
	}
	return nil
}
