package ratchet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carthedge/core"
	"carthedge/gate"
)

func freshState() *State {
	return NewState([32]byte{1}, [32]byte{2}, [32]byte{3})
}

func TestNextMessageKeyAdvancesSendCounter(t *testing.T) {
	s := freshState()
	var g gate.AllowAllGate

	ck0 := s.ChainKeySend
	mk, err := s.NextMessageKey(g)
	require.NoError(t, err)
	assert.NotEqual(t, ck0, s.ChainKeySend)
	assert.Equal(t, uint64(1), s.SendCounter)
	assert.NotEqual(t, [32]byte{}, mk)
}

func TestStepSendIncrementsAndRecordsPrev(t *testing.T) {
	s := freshState()
	var g gate.AllowAllGate

	require.NoError(t, s.StepSend(g))
	assert.Equal(t, uint64(0), s.PrevSendCounter)
	assert.Equal(t, uint64(1), s.SendCounter)

	require.NoError(t, s.StepSend(g))
	assert.Equal(t, uint64(1), s.PrevSendCounter)
	assert.Equal(t, uint64(2), s.SendCounter)
}

func TestStepSendDeniedRollsBackCounters(t *testing.T) {
	s := freshState()
	s.SendCounter = 4
	s.PrevSendCounter = 3

	err := s.StepSend(gate.DenyGate{Reason: "no"})
	require.Error(t, err)
	assert.Equal(t, uint64(4), s.SendCounter)
	assert.Equal(t, uint64(3), s.PrevSendCounter)
}

func TestStepRecvAdvancesRecvCounter(t *testing.T) {
	s := freshState()
	var g gate.AllowAllGate

	require.NoError(t, s.StepRecv(g))
	assert.Equal(t, uint64(1), s.RecvCounter)
	require.NoError(t, s.StepRecv(g))
	assert.Equal(t, uint64(2), s.RecvCounter)
}

func TestLockedRatchetRejectsEvolution(t *testing.T) {
	s := freshState()
	s.Lock()
	var g gate.AllowAllGate

	_, err := s.NextMessageKey(g)
	assert.ErrorIs(t, err, core.ErrRatchetLocked)

	err = s.StepSend(g)
	assert.ErrorIs(t, err, core.ErrRatchetLocked)
}

func TestForceRecoverUnlocksAndBumpsEpoch(t *testing.T) {
	s := freshState()
	s.Lock()
	var g gate.AllowAllGate

	require.NoError(t, s.ForceRecover(g))
	assert.Equal(t, Running, s.Status)
	assert.Equal(t, uint64(1), s.Epoch)
}

func TestForceRecoverDeniedStaysLocked(t *testing.T) {
	s := freshState()
	s.Lock()

	err := s.ForceRecover(gate.DenyGate{Reason: "not yet"})
	require.Error(t, err)
	assert.Equal(t, Locked, s.Status)
}

func TestForceRecoverWipesStaleKeys(t *testing.T) {
	s := freshState()
	s.Lock()
	var g gate.AllowAllGate

	require.NoError(t, s.ForceRecover(g))
	assert.Equal(t, [32]byte{}, s.RootKey)
	assert.Equal(t, [32]byte{}, s.ChainKeySend)
	assert.Equal(t, [32]byte{}, s.ChainKeyRecv)
}

func TestZeroizeWipesKeysAndSkippedStore(t *testing.T) {
	s := freshState()
	require.NoError(t, s.Skipped.Put(0, [32]byte{9}))

	s.Zeroize()
	assert.Equal(t, [32]byte{}, s.RootKey)
	assert.Equal(t, [32]byte{}, s.ChainKeySend)
	assert.Equal(t, [32]byte{}, s.ChainKeyRecv)
	assert.Equal(t, 0, s.Skipped.Len())
}

func TestSealOpenPairwiseRoundTrip(t *testing.T) {
	var g gate.AllowAllGate
	s := freshState()

	mk, err := s.NextMessageKey(g)
	require.NoError(t, err)

	h := Header{MsgType: core.RatchetMsg, Counter: 0, PrevCounter: 0}
	env, err := Seal(g, h, mk, []byte("hi"))
	require.NoError(t, err)

	plaintext, err := Open(g, h, mk, env)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), plaintext)
}

func TestOpenRejectsMismatchedHeader(t *testing.T) {
	var g gate.AllowAllGate
	s := freshState()
	mk, err := s.NextMessageKey(g)
	require.NoError(t, err)

	h := Header{MsgType: core.RatchetMsg, Counter: 0}
	env, err := Seal(g, h, mk, []byte("hi"))
	require.NoError(t, err)

	wrongHeader := Header{MsgType: core.RatchetMsg, Counter: 1}
	_, err = Open(g, wrongHeader, mk, env)
	assert.ErrorIs(t, err, core.ErrInvalidEnvelope)
}
