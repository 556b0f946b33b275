package crypto

import (
	"encoding/base64"
	"fmt"
)

// textEncoding is the radix-64 alphabet of RFC 4648 Section 4, emitted on a
// single line. WAMP routers compare the padded form, so padding is kept.
var textEncoding = base64.StdEncoding

// Encode maps raw bytes to the transport-safe text form used for derived
// keys and digests. The output never contains line breaks.
func Encode(raw []byte) string {
	return textEncoding.EncodeToString(raw)
}

// Decode reverses Encode.
func Decode(text string) ([]byte, error) {
	raw, err := textEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return raw, nil
}

// EncodedLen returns the length of the text form of n raw bytes.
func EncodedLen(n int) int {
	return textEncoding.EncodedLen(n)
}
