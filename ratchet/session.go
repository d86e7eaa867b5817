package ratchet

import (
	"crypto/sha256"

	"carthedge/core"
	"carthedge/gate"
)

var sessionKeysInfo = []byte("carthedge/v0.3/session_keys")
var transcriptDomain = []byte("carthedge/v0.3/transcript")

// SessionKeys is the split output of DeriveSessionKeys: the seed for a fresh
// RatchetState.
type SessionKeys struct {
	RootKey      [32]byte
	ChainKeySend [32]byte
	ChainKeyRecv [32]byte
}

// TranscriptHash computes SHA-256("carthedge/v0.3/transcript" || ei || er)
// over the two handshake ephemeral public keys. No permanent identifier may
// ever be folded into this hash.
func TranscriptHash(ephemeralInitiator, ephemeralResponder [32]byte) [32]byte {
	h := sha256.New()
	h.Write(transcriptDomain)
	h.Write(ephemeralInitiator[:])
	h.Write(ephemeralResponder[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveSessionKeys turns a handshake's shared secret and transcript hash
// into the root key / send chain key / recv chain key triple that seeds a
// new RatchetState, gated by ratchet_derive_session_keys with op_context =
// the transcript hash.
func DeriveSessionKeys(g gate.Gate, handshakeSharedSecret []byte, transcriptHash [32]byte) (SessionKeys, error) {
	if err := gate.Check(g, "ratchet_derive_session_keys", transcriptHash[:]); err != nil {
		return SessionKeys{}, err
	}

	okm, err := core.ExtractAndExpand96(transcriptHash[:], handshakeSharedSecret, sessionKeysInfo)
	if err != nil {
		return SessionKeys{}, err
	}

	var keys SessionKeys
	copy(keys.RootKey[:], okm[0:32])
	copy(keys.ChainKeySend[:], okm[32:64])
	copy(keys.ChainKeyRecv[:], okm[64:96])
	return keys, nil
}
