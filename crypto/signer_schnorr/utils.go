// Package signer_schnorr signs and verifies prekey bundles with Schnorr
// signatures over the key25519 curve, used by the handshake package to bind
// a signed prekey to its owning identity key.
package signer_schnorr

import (
	"go.dedis.ch/kyber/v4/sign/schnorr"

	"carthedge/crypto/key25519"
)

// Sign produces a Schnorr signature over msg under privKey.
func Sign(privKey key25519.PrivateKey, msg []byte) ([]byte, error) {
	scalar, err := privKey.ToScalar()
	if err != nil {
		return nil, err
	}
	return schnorr.Sign(key25519.Suite, scalar, msg)
}

// Verify checks a Schnorr signature over msg under pubKey.
func Verify(pubKey key25519.PublicKey, msg, sig []byte) error {
	point, err := pubKey.ToPoint()
	if err != nil {
		return err
	}
	return schnorr.Verify(key25519.Suite, point, msg, sig)
}
