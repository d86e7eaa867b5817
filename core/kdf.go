package core

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ExtractAndExpand96 runs HKDF-SHA-256 extract-then-expand and returns 96
// bytes of output keying material. Used once per session to split a
// handshake transcript into root key / send chain key / recv chain key.
func ExtractAndExpand96(salt, ikm, info []byte) ([96]byte, error) {
	var out [96]byte
	r := hkdf.New(sha256.New, ikm, salt, info)
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, err
	}
	return out, nil
}

// Expand32 runs HKDF-SHA-256 expand-only (empty salt, prk treated as IKM)
// and returns 32 bytes. This is the one-way step used to evolve chain keys
// and to derive message keys from a chain key.
func Expand32(prk, info []byte) ([32]byte, error) {
	var out [32]byte
	r := hkdf.New(sha256.New, prk, nil, info)
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, err
	}
	return out, nil
}
