package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carthedge/core"
)

func TestAllowAllGateAllows(t *testing.T) {
	var g AllowAllGate
	dec, err := g.GateCheck("ratchet_msg_key", []byte("ctx"))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestDenyGateBlocks(t *testing.T) {
	g := DenyGate{Reason: "policy says no"}
	err := Check(g, "ratchet_msg_key", []byte("ctx"))
	require.Error(t, err)
	assert.True(t, assertGateBlocked(err))
	assert.Contains(t, err.Error(), "policy says no")
}

func assertGateBlocked(err error) bool {
	return core.IsGateBlocked(err)
}

func TestLoggingGatePassesThroughDecision(t *testing.T) {
	inner := AllowAllGate{}
	lg := NewLoggingGate(inner, nil)
	dec, err := lg.GateCheck("decrypt_msg", []byte("some header hash"))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	denyLg := NewLoggingGate(DenyGate{Reason: "nope"}, nil)
	dec, err = denyLg.GateCheck("decrypt_msg", []byte("ctx"))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
}
