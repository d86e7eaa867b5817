package ratchet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carthedge/gate"
)

func TestDeriveSessionKeysIsDeterministic(t *testing.T) {
	var g gate.AllowAllGate
	secret := []byte("shared secret from x3dh")
	th := TranscriptHash([32]byte{1}, [32]byte{2})

	k1, err := DeriveSessionKeys(g, secret, th)
	require.NoError(t, err)
	k2, err := DeriveSessionKeys(g, secret, th)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1.RootKey, k1.ChainKeySend)
	assert.NotEqual(t, k1.ChainKeySend, k1.ChainKeyRecv)
}

func TestDeriveSessionKeysDeniedByGate(t *testing.T) {
	th := TranscriptHash([32]byte{1}, [32]byte{2})
	_, err := DeriveSessionKeys(gate.DenyGate{Reason: "blocked"}, []byte("secret"), th)
	assert.Error(t, err)
}

func TestTranscriptHashBindsBothEphemeralKeys(t *testing.T) {
	a := TranscriptHash([32]byte{1}, [32]byte{2})
	b := TranscriptHash([32]byte{1}, [32]byte{3})
	assert.NotEqual(t, a, b)
}
