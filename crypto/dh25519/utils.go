// Package dh25519 computes a raw Diffie-Hellman shared point on the curve
// key25519 uses. The handshake package feeds the resulting bytes into HKDF;
// nothing in this package touches HKDF or any session-key shape directly.
package dh25519

import (
	"errors"

	"carthedge/crypto/key25519"
)

var ErrInvalidInput = errors.New("dh25519: invalid key input")

// GetSecret computes the DH shared secret aPriv * bPub as raw curve-point
// bytes.
func GetSecret(aPriv *key25519.PrivateKey, bPub *key25519.PublicKey) ([]byte, error) {
	if aPriv == nil || bPub == nil {
		return nil, ErrInvalidInput
	}
	scalar, err := aPriv.ToScalar()
	if err != nil {
		return nil, err
	}
	point, err := bPub.ToPoint()
	if err != nil {
		return nil, err
	}
	secret := key25519.Suite.Point().Mul(scalar, point)
	return secret.MarshalBinary()
}
