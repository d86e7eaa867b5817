package handshake

import (
	"fmt"

	"carthedge/crypto/dh25519"
	"carthedge/crypto/key25519"
)

// InitiatorResult is what the initiating side carries forward into session
// setup: the raw (unextracted) shared secret and the ephemeral key pair it
// generated, whose public half must reach the responder and is fed into
// TranscriptHash.
type InitiatorResult struct {
	SharedSecret []byte
	Ephemeral    key25519.Pair
}

// PerformInitiatorAgreement runs the Alice side of X3DH against a verified
// responder bundle: DH(identity, bob.prekey) || DH(ephemeral, bob.identity)
// || DH(ephemeral, bob.prekey) [|| DH(ephemeral, bob.one_time_prekey)].
func PerformInitiatorAgreement(identity key25519.PrivateKey, bundle PublicPrekeyBundle) (*InitiatorResult, error) {
	if err := bundle.Verify(); err != nil {
		return nil, fmt.Errorf("handshake: verify responder bundle: %w", err)
	}

	ephemeralPriv, err := key25519.New()
	if err != nil {
		return nil, fmt.Errorf("handshake: generate ephemeral key: %w", err)
	}
	ephemeralPub, err := ephemeralPriv.Public()
	if err != nil {
		return nil, fmt.Errorf("handshake: derive ephemeral public key: %w", err)
	}

	dh1, err := dh25519.GetSecret(&identity, &bundle.Prekey)
	if err != nil {
		return nil, fmt.Errorf("handshake: dh1: %w", err)
	}
	dh2, err := dh25519.GetSecret(ephemeralPriv, &bundle.IdentityKey)
	if err != nil {
		return nil, fmt.Errorf("handshake: dh2: %w", err)
	}
	dh3, err := dh25519.GetSecret(ephemeralPriv, &bundle.Prekey)
	if err != nil {
		return nil, fmt.Errorf("handshake: dh3: %w", err)
	}

	shared := make([]byte, 0, 4*len(dh1))
	shared = append(shared, dh1...)
	shared = append(shared, dh2...)
	shared = append(shared, dh3...)

	if bundle.OneTimePrekey != nil {
		dh4, err := dh25519.GetSecret(ephemeralPriv, bundle.OneTimePrekey)
		if err != nil {
			return nil, fmt.Errorf("handshake: dh4: %w", err)
		}
		shared = append(shared, dh4...)
	}

	return &InitiatorResult{
		SharedSecret: shared,
		Ephemeral:    key25519.Pair{Priv: *ephemeralPriv, Pub: *ephemeralPub},
	}, nil
}
