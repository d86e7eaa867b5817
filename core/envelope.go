package core

import (
	"crypto/sha256"

	"golang.org/x/crypto/chacha20poly1305"
)

// noncePrefix domain-separates the deterministic nonce derivation from every
// other SHA-256 use in this module.
var noncePrefix = []byte("carthedge/v0.3/envelope_v2/nonce")

// Envelope is the authenticated-encryption container the ratchet and channel
// packages seal and open. Its wire serialization is a transport concern
// outside the core; the server/client packages own that.
type Envelope struct {
	MsgType    MsgType
	Flags      uint16
	Header     []byte
	AAD        []byte
	Nonce      [chacha20poly1305.NonceSize]byte
	Ciphertext []byte
}

// deriveNonce binds the AEAD nonce to the header and associated data:
// nonce12 = SHA-256("carthedge/v0.3/envelope_v2/nonce" || header || aad)[:12].
// This is safe only because header embeds a monotonic counter and epoch,
// making (header, aad) unique per key; see the deterministic-nonce design
// note for why a random or explicit-counter nonce should be preferred in a
// production deployment.
func deriveNonce(header, aad []byte) [chacha20poly1305.NonceSize]byte {
	h := sha256.New()
	h.Write(noncePrefix)
	h.Write(header)
	h.Write(aad)
	digest := h.Sum(nil)

	var nonce [chacha20poly1305.NonceSize]byte
	copy(nonce[:], digest[:chacha20poly1305.NonceSize])
	return nonce
}

// SealEnvelope encrypts plaintext under key32 with ChaCha20-Poly1305,
// binding header and aad into a deterministic nonce and aad into the AEAD
// associated data. aad must be non-empty.
func SealEnvelope(msgType MsgType, flags uint16, header, aad, key32 []byte, plaintext []byte) (*Envelope, error) {
	if len(aad) == 0 {
		return nil, ErrInvalidEnvelope
	}

	aead, err := chacha20poly1305.New(key32)
	if err != nil {
		return nil, ErrInvalidEnvelope
	}

	nonce := deriveNonce(header, aad)
	ciphertext := aead.Seal(nil, nonce[:], plaintext, aad)

	return &Envelope{
		MsgType:    msgType,
		Flags:      flags,
		Header:     header,
		AAD:        aad,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// Open decrypts the envelope under key32, returning ErrInvalidEnvelope on
// any authentication failure.
func (e *Envelope) Open(key32 []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key32)
	if err != nil {
		return nil, ErrInvalidEnvelope
	}

	plaintext, err := aead.Open(nil, e.Nonce[:], e.Ciphertext, e.AAD)
	if err != nil {
		return nil, ErrInvalidEnvelope
	}
	return plaintext, nil
}
