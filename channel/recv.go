package channel

import (
	"crypto/sha256"
	"encoding/binary"

	"carthedge/core"
	"carthedge/gate"
)

var skippedKeyIDDomain = []byte("carthedge/v0.3.5/skipped_key_id")

func skippedKeyID(epoch, counter uint64) [32]byte {
	var epochBuf, counterBuf [8]byte
	binary.LittleEndian.PutUint64(epochBuf[:], epoch)
	binary.LittleEndian.PutUint64(counterBuf[:], counter)

	h := sha256.New()
	h.Write(skippedKeyIDDomain)
	h.Write(epochBuf[:])
	h.Write(counterBuf[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// RecvForMember is the channel receive path: it validates header and
// envelope against expectedMemberIx before touching any chain key, then
// dispatches on counter order into the normal, fast-forward, or
// skipped-take branch. Exactly one message key is consumed per accepted
// counter; recv_counter ends up equal to the highest in-order counter + 1.
func (c *State) RecvForMember(g gate.Gate, expectedMemberIx uint32, header Header, env *core.Envelope) ([]byte, error) {
	if header.MsgType != core.ChannelMsg {
		return nil, core.ErrInvalidEnvelope
	}
	if header.MemberIx != expectedMemberIx {
		return nil, core.ErrInvalidEnvelope
	}

	hh := header.Hash()
	if err := gate.Check(g, "decrypt_msg", hh[:]); err != nil {
		return nil, err
	}

	if int(header.MemberIx) >= len(c.Members) {
		return nil, core.ErrInvalidEnvelope
	}
	member := c.Members[header.MemberIx]

	if header.Epoch != member.Ratchet.Epoch {
		return nil, core.ErrForcedRecovery
	}

	if string(env.Header) != string(header.Encode()) {
		return nil, core.ErrInvalidEnvelope
	}
	if len(env.AAD) != len(hh) || string(env.AAD) != string(hh[:]) {
		return nil, core.ErrInvalidEnvelope
	}

	expected := member.Ratchet.RecvCounter

	switch {
	case header.Counter < expected:
		return c.recvSkipped(g, member, header, env)
	case header.Counter > expected:
		if err := c.fastForward(g, member, header.Counter); err != nil {
			return nil, err
		}
		fallthrough
	default:
		return c.recvNormal(g, member, env)
	}
}

// recvNormal consumes the current receive-chain step and opens env.
func (c *State) recvNormal(g gate.Gate, m *Member, env *core.Envelope) ([]byte, error) {
	if err := m.Ratchet.StepRecv(g); err != nil {
		return nil, err
	}
	mk, err := deriveRecvMessageKey(m)
	if err != nil {
		return nil, err
	}
	return env.Open(mk[:])
}

// recvSkipped handles counter < recv_counter: either a still-pending
// out-of-order arrival (served from the skipped store) or a replay.
func (c *State) recvSkipped(g gate.Gate, m *Member, header Header, env *core.Envelope) ([]byte, error) {
	keyID := skippedKeyID(header.Epoch, header.Counter)
	if err := gate.Check(g, "skipped_key_use", keyID[:]); err != nil {
		return nil, err
	}

	mk, ok := m.Ratchet.Skipped.Take(header.Counter)
	if !ok {
		return nil, core.ErrReplayDetected
	}
	return env.Open(mk[:])
}

// fastForward advances the receive chain from its current counter up to
// (but excluding) target, gating and storing each intermediate message key
// in the skipped store so a later out-of-order arrival for one of those
// counters can still be served.
func (c *State) fastForward(g gate.Gate, m *Member, target uint64) error {
	for m.Ratchet.RecvCounter < target {
		if err := m.Ratchet.StepRecv(g); err != nil {
			return err
		}
		mk, err := deriveRecvMessageKey(m)
		if err != nil {
			return err
		}
		if err := m.Ratchet.Skipped.Put(m.Ratchet.RecvCounter-1, mk); err != nil {
			return core.ErrSkippedStoreError
		}
	}
	return nil
}

// deriveRecvMessageKey is exported within the package only: it derives the
// message key for the receive chain as it stands right now, without
// evolving it further (the caller must have already called StepRecv).
func deriveRecvMessageKey(m *Member) ([32]byte, error) {
	return m.Ratchet.RecvMessageKey()
}
