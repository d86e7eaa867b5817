package handshake

import (
	"fmt"

	"carthedge/crypto/dh25519"
	"carthedge/crypto/key25519"
)

// RemoteInitiatorKeys is what the responder receives over the wire from the
// initiator: the initiator's long-term identity key and the ephemeral
// public key generated for this handshake.
type RemoteInitiatorKeys struct {
	IdentityKey key25519.PublicKey
	Ephemeral   key25519.PublicKey
}

// PerformResponderAgreement runs the Bob side of X3DH, mirroring the four DH
// computations the initiator performed. usedOneTimePrekey tells the
// responder whether to fold its own consumed one-time prekey into the
// secret — the initiator signals this by having sent (or not) a one-time
// prekey identifier alongside the handshake message, tracked by the caller.
func PerformResponderAgreement(own PrivatePrekeyBundle, remote RemoteInitiatorKeys, usedOneTimePrekey bool) ([]byte, error) {
	dh1, err := dh25519.GetSecret(&own.Prekey, &remote.IdentityKey)
	if err != nil {
		return nil, fmt.Errorf("handshake: dh1: %w", err)
	}
	dh2, err := dh25519.GetSecret(&own.IdentityKey, &remote.Ephemeral)
	if err != nil {
		return nil, fmt.Errorf("handshake: dh2: %w", err)
	}
	dh3, err := dh25519.GetSecret(&own.Prekey, &remote.Ephemeral)
	if err != nil {
		return nil, fmt.Errorf("handshake: dh3: %w", err)
	}

	shared := make([]byte, 0, 4*len(dh1))
	shared = append(shared, dh1...)
	shared = append(shared, dh2...)
	shared = append(shared, dh3...)

	if usedOneTimePrekey {
		if own.OneTimePrekey == nil {
			return nil, fmt.Errorf("handshake: initiator claims a one-time prekey we did not publish")
		}
		dh4, err := dh25519.GetSecret(own.OneTimePrekey, &remote.Ephemeral)
		if err != nil {
			return nil, fmt.Errorf("handshake: dh4: %w", err)
		}
		shared = append(shared, dh4...)
	}

	return shared, nil
}
