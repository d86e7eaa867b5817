package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carthedge/core"
	"carthedge/gate"
	"carthedge/ratchet"
)

// countingGate wraps AllowAllGate and records how many times GateCheck ran,
// so boundary tests can assert a precondition failed before any gate call.
type countingGate struct {
	calls int
}

func (c *countingGate) GateCheck(opName string, opContext []byte) (core.GateDecision, error) {
	c.calls++
	return gate.AllowAllGate{}.GateCheck(opName, opContext)
}

var (
	chainStepInfo = []byte("carthedge/ratchet/ck")
	messageKeyInfo = []byte("carthedge/ratchet/mk")
)

// messageKeyForCounter mirrors what RecvForMember derives for a given
// counter: the receive chain is stepped counter+1 times from its initial
// value, then the message key is expanded from the resulting chain key.
func messageKeyForCounter(t *testing.T, initialChainKeyRecv [32]byte, counter uint64) [32]byte {
	t.Helper()
	ck := initialChainKeyRecv
	for i := uint64(0); i <= counter; i++ {
		next, err := core.Expand32(ck[:], chainStepInfo)
		require.NoError(t, err)
		ck = next
	}
	mk, err := core.Expand32(ck[:], messageKeyInfo)
	require.NoError(t, err)
	return mk
}

func sealForCounter(t *testing.T, epoch, counter uint64, memberIx uint32, mk [32]byte, plaintext []byte) (Header, *core.Envelope) {
	t.Helper()
	h := Header{MsgType: core.ChannelMsg, Epoch: epoch, Counter: counter, MemberIx: memberIx}
	hh := h.Hash()
	env, err := core.SealEnvelope(core.ChannelMsg, 0, h.Encode(), hh[:], mk[:], plaintext)
	require.NoError(t, err)
	return h, env
}

func freshChannelMember() (*State, [32]byte) {
	ckr := [32]byte{9, 9, 9}
	m := NewMember(ratchet.NewState([32]byte{1}, [32]byte{2}, ckr))
	c := New()
	c.AddMember(m)
	return c, ckr
}

func TestRecvNormalRoundTrip(t *testing.T) {
	c, ckr := freshChannelMember()
	mk := messageKeyForCounter(t, ckr, 0)
	h, env := sealForCounter(t, 0, 0, 0, mk, []byte("hello"))

	pt, err := c.RecvForMember(gate.AllowAllGate{}, 0, h, env)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), pt)
	assert.Equal(t, uint64(1), c.Members[0].Ratchet.RecvCounter)
}

func TestRecvOutOfOrderWithinWindowServedFromSkippedStore(t *testing.T) {
	c, ckr := freshChannelMember()

	mk2 := messageKeyForCounter(t, ckr, 2)
	h2, env2 := sealForCounter(t, 0, 2, 0, mk2, []byte("two"))
	pt2, err := c.RecvForMember(gate.AllowAllGate{}, 0, h2, env2)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), pt2)
	assert.Equal(t, uint64(3), c.Members[0].Ratchet.RecvCounter)
	assert.Equal(t, 2, c.Members[0].Ratchet.Skipped.Len())

	mk0 := messageKeyForCounter(t, ckr, 0)
	h0, env0 := sealForCounter(t, 0, 0, 0, mk0, []byte("zero"))
	pt0, err := c.RecvForMember(gate.AllowAllGate{}, 0, h0, env0)
	require.NoError(t, err)
	assert.Equal(t, []byte("zero"), pt0)

	mk1 := messageKeyForCounter(t, ckr, 1)
	h1, env1 := sealForCounter(t, 0, 1, 0, mk1, []byte("one"))
	pt1, err := c.RecvForMember(gate.AllowAllGate{}, 0, h1, env1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), pt1)

	assert.Equal(t, 0, c.Members[0].Ratchet.Skipped.Len())
}

func TestRecvReplayDetected(t *testing.T) {
	c, ckr := freshChannelMember()
	mk0 := messageKeyForCounter(t, ckr, 0)
	h0, env0 := sealForCounter(t, 0, 0, 0, mk0, []byte("zero"))

	_, err := c.RecvForMember(gate.AllowAllGate{}, 0, h0, env0)
	require.NoError(t, err)

	_, err = c.RecvForMember(gate.AllowAllGate{}, 0, h0, env0)
	assert.ErrorIs(t, err, core.ErrReplayDetected)
}

func TestRecvEpochMismatchForcesRecovery(t *testing.T) {
	c, ckr := freshChannelMember()
	mk0 := messageKeyForCounter(t, ckr, 0)
	h0, env0 := sealForCounter(t, 1, 0, 0, mk0, []byte("zero"))

	_, err := c.RecvForMember(gate.AllowAllGate{}, 0, h0, env0)
	assert.ErrorIs(t, err, core.ErrForcedRecovery)
}

func TestRecvMemberIxMismatchFailsBeforeAnyGateCall(t *testing.T) {
	c, ckr := freshChannelMember()
	mk0 := messageKeyForCounter(t, ckr, 0)
	h0, env0 := sealForCounter(t, 0, 0, 0, mk0, []byte("zero"))

	cg := &countingGate{}
	_, err := c.RecvForMember(cg, 7, h0, env0)
	assert.ErrorIs(t, err, core.ErrInvalidEnvelope)
	assert.Equal(t, 0, cg.calls)
}

func TestRecvEnvelopeHeaderMismatchRejected(t *testing.T) {
	c, ckr := freshChannelMember()
	mk0 := messageKeyForCounter(t, ckr, 0)
	h0, env0 := sealForCounter(t, 0, 0, 0, mk0, []byte("zero"))

	wrongHeader := Header{MsgType: core.ChannelMsg, Epoch: 0, Counter: 5, MemberIx: 0}
	_, err := c.RecvForMember(gate.AllowAllGate{}, 0, wrongHeader, env0)
	assert.ErrorIs(t, err, core.ErrInvalidEnvelope)
}
