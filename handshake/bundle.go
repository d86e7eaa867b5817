// Package handshake implements the X3DH-style key agreement that seeds a
// fresh pairwise ratchet: both sides combine their identity, signed-prekey,
// ephemeral, and (optional) one-time-prekey material into a shared secret,
// then hand it to ratchet.DeriveSessionKeys together with a transcript hash
// bound to the two ephemeral public keys. None of this package's state
// machine is itself gated — SPEC_FULL.md scopes governance to the ratchet
// and channel cores; the handshake is how a session gets born.
package handshake

import (
	"fmt"

	"carthedge/crypto/key25519"
	"carthedge/crypto/signer_schnorr"
)

// PublicPrekeyBundle is what a responder (Bob) publishes for an initiator
// (Alice) to fetch and use: a long-term identity key, a signed prekey, and
// an optional one-time prekey.
type PublicPrekeyBundle struct {
	IdentityKey   key25519.PublicKey
	Prekey        key25519.PublicKey
	PrekeySig     []byte
	OneTimePrekey *key25519.PublicKey
}

// Verify checks that PrekeySig is a valid signature over Prekey under
// IdentityKey.
func (b PublicPrekeyBundle) Verify() error {
	return signer_schnorr.Verify(b.IdentityKey, b.Prekey[:], b.PrekeySig)
}

// PrivatePrekeyBundle is the responder's own copy of the above, including
// the private halves needed to complete the agreement.
type PrivatePrekeyBundle struct {
	IdentityKey   key25519.PrivateKey
	Prekey        key25519.PrivateKey
	OneTimePrekey *key25519.PrivateKey
}

// Publish derives the public bundle a responder advertises, signing the
// prekey with the identity key.
func (b *PrivatePrekeyBundle) Publish() (PublicPrekeyBundle, error) {
	identityPub, err := b.IdentityKey.Public()
	if err != nil {
		return PublicPrekeyBundle{}, fmt.Errorf("handshake: derive identity public key: %w", err)
	}
	prekeyPub, err := b.Prekey.Public()
	if err != nil {
		return PublicPrekeyBundle{}, fmt.Errorf("handshake: derive prekey public key: %w", err)
	}
	sig, err := signer_schnorr.Sign(b.IdentityKey, prekeyPub[:])
	if err != nil {
		return PublicPrekeyBundle{}, fmt.Errorf("handshake: sign prekey: %w", err)
	}

	var oneTimePub *key25519.PublicKey
	if b.OneTimePrekey != nil {
		pub, err := b.OneTimePrekey.Public()
		if err != nil {
			return PublicPrekeyBundle{}, fmt.Errorf("handshake: derive one-time prekey public key: %w", err)
		}
		oneTimePub = pub
	}

	return PublicPrekeyBundle{
		IdentityKey:   *identityPub,
		Prekey:        *prekeyPub,
		PrekeySig:     sig,
		OneTimePrekey: oneTimePub,
	}, nil
}
