package handshake

import (
	"carthedge/crypto/key25519"
	"carthedge/gate"
	"carthedge/ratchet"
)

// responderEphemeral is X3DH's e_r: classic X3DH only has the initiator
// generate a per-session ephemeral key, so the responder's half of the
// transcript hash is its long-term signed prekey instead — still
// handshake-specific material, never a raw identity key.
func responderEphemeral(bundle PublicPrekeyBundle) key25519.PublicKey {
	return bundle.Prekey
}

// NewInitiatorRatchet seeds a pairwise ratchet for the initiator (Alice)
// side of a freshly agreed handshake. DeriveSessionKeys is symmetric in its
// two participants — both sides compute the same (root, ck_first, ck_second)
// triple from the same transcript and shared secret — so the two roles must
// swap which half becomes their send chain and which becomes their receive
// chain; this function assigns the initiator's send chain to the first
// half, matching NewResponderRatchet's assignment of its receive chain to
// the same half.
func NewInitiatorRatchet(g gate.Gate, result *InitiatorResult, responderBundle PublicPrekeyBundle) (*ratchet.State, error) {
	transcript := ratchet.TranscriptHash(result.Ephemeral.Pub, responderEphemeral(responderBundle))
	keys, err := ratchet.DeriveSessionKeys(g, result.SharedSecret, transcript)
	if err != nil {
		return nil, err
	}
	return ratchet.NewState(keys.RootKey, keys.ChainKeySend, keys.ChainKeyRecv), nil
}

// NewResponderRatchet seeds the responder (Bob) side of the same handshake.
// It derives the identical (root, ck_first, ck_second) triple, then swaps
// the two chain keys relative to the initiator's assignment: the
// initiator's send chain is the responder's receive chain, and vice versa.
func NewResponderRatchet(g gate.Gate, sharedSecret []byte, initiatorEphemeral key25519.PublicKey, ownBundle PrivatePrekeyBundle) (*ratchet.State, error) {
	ownPrekeyPub, err := ownBundle.Prekey.Public()
	if err != nil {
		return nil, err
	}
	transcript := ratchet.TranscriptHash(initiatorEphemeral, *ownPrekeyPub)
	keys, err := ratchet.DeriveSessionKeys(g, sharedSecret, transcript)
	if err != nil {
		return nil, err
	}
	return ratchet.NewState(keys.RootKey, keys.ChainKeyRecv, keys.ChainKeySend), nil
}
