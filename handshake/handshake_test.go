package handshake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carthedge/crypto/key25519"
	"carthedge/gate"
)

func TestInitiatorAndResponderAgreeOnSharedSecret(t *testing.T) {
	bobIdentity, err := key25519.New()
	require.NoError(t, err)
	bobPrekey, err := key25519.New()
	require.NoError(t, err)

	bobPrivate := PrivatePrekeyBundle{IdentityKey: *bobIdentity, Prekey: *bobPrekey}
	bobPublic, err := bobPrivate.Publish()
	require.NoError(t, err)

	aliceIdentity, err := key25519.New()
	require.NoError(t, err)

	initResult, err := PerformInitiatorAgreement(*aliceIdentity, bobPublic)
	require.NoError(t, err)
	assert.NotEmpty(t, initResult.SharedSecret)

	aliceIdentityPub, err := aliceIdentity.Public()
	require.NoError(t, err)

	respSecret, err := PerformResponderAgreement(bobPrivate, RemoteInitiatorKeys{
		IdentityKey: *aliceIdentityPub,
		Ephemeral:   initResult.Ephemeral.Pub,
	}, false)
	require.NoError(t, err)

	assert.Equal(t, initResult.SharedSecret, respSecret)
}

func TestInitiatorRejectsBadSignature(t *testing.T) {
	bobIdentity, err := key25519.New()
	require.NoError(t, err)
	bobPrekey, err := key25519.New()
	require.NoError(t, err)

	bobPublic, err := (&PrivatePrekeyBundle{IdentityKey: *bobIdentity, Prekey: *bobPrekey}).Publish()
	require.NoError(t, err)
	bobPublic.PrekeySig = []byte("not a signature")

	aliceIdentity, err := key25519.New()
	require.NoError(t, err)

	_, err = PerformInitiatorAgreement(*aliceIdentity, bobPublic)
	assert.Error(t, err)
}

func TestInitiatorAndResponderRatchetsMirror(t *testing.T) {
	bobIdentity, err := key25519.New()
	require.NoError(t, err)
	bobPrekey, err := key25519.New()
	require.NoError(t, err)

	bobPrivate := PrivatePrekeyBundle{IdentityKey: *bobIdentity, Prekey: *bobPrekey}
	bobPublic, err := bobPrivate.Publish()
	require.NoError(t, err)

	aliceIdentity, err := key25519.New()
	require.NoError(t, err)

	initResult, err := PerformInitiatorAgreement(*aliceIdentity, bobPublic)
	require.NoError(t, err)

	aliceIdentityPub, err := aliceIdentity.Public()
	require.NoError(t, err)
	respSecret, err := PerformResponderAgreement(bobPrivate, RemoteInitiatorKeys{
		IdentityKey: *aliceIdentityPub,
		Ephemeral:   initResult.Ephemeral.Pub,
	}, false)
	require.NoError(t, err)

	var g gate.AllowAllGate
	aliceRatchet, err := NewInitiatorRatchet(g, initResult, bobPublic)
	require.NoError(t, err)
	bobRatchet, err := NewResponderRatchet(g, respSecret, initResult.Ephemeral.Pub, bobPrivate)
	require.NoError(t, err)

	assert.Equal(t, aliceRatchet.RootKey, bobRatchet.RootKey)
	assert.Equal(t, aliceRatchet.ChainKeySend, bobRatchet.ChainKeyRecv)
	assert.Equal(t, aliceRatchet.ChainKeyRecv, bobRatchet.ChainKeySend)
}
