// Package fingerprint renders a long-term identity key as a sequence of
// digits for out-of-band verification, the same way the Signal app displays
// a safety number. It has no bearing on any gated core operation; it exists
// purely for the client's human-facing "verify contact" screen.
package fingerprint

import (
	"crypto/sha512"
	"encoding/binary"

	"carthedge/crypto/key25519"
)

// Fingerprint iteratively hashes pubKey together with userIdentifier 5200
// times (mirroring the Signal safety-number construction) and renders the
// first 30 bytes of the result as 30 decimal digits.
func Fingerprint(pubKey key25519.PublicKey, userIdentifier []byte) (*[30]int, error) {
	digest := append(append([]byte{}, pubKey[:]...), userIdentifier...)
	hash := sha512.New()
	for i := 0; i < 5200; i++ {
		if _, err := hash.Write(digest); err != nil {
			return nil, err
		}
		digest = hash.Sum(nil)
		hash.Reset()
	}

	var result [30]byte
	copy(result[:], digest[:30])

	var out [30]int
	for i := 0; i < 6; i++ {
		chunk := result[i*5 : (i+1)*5]
		num := binary.BigEndian.Uint64(append([]byte{0, 0, 0}, chunk...)) % 100000
		for j := 4; j >= 0; j-- {
			out[i*5+j] = int(num % 10)
			num /= 10
		}
	}
	return &out, nil
}
