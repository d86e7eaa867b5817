package channel

import (
	"encoding/binary"

	"carthedge/gate"
)

// State is the channel-wide wrapper around an ordered member sequence plus
// the channel epoch. A channel exclusively owns its members; member_ix
// values address positions inside Members and are stable for the channel's
// lifetime — additions append, removal is out of scope.
type State struct {
	Members []*Member
	Epoch   uint64
}

// New constructs an empty channel at epoch 0.
func New() *State {
	return &State{}
}

// AddMember appends member and returns its ordinal member_ix — the
// authoritative wire address for subsequent channel headers.
func (c *State) AddMember(m *Member) uint32 {
	c.Members = append(c.Members, m)
	return uint32(len(c.Members) - 1)
}

// Rotate is the channel-wide forced-recovery signal: gated by
// channel_rotate with op_context = the current epoch (8 bytes LE), it
// increments Epoch on allow and wipes every member's now-stale chain keys
// (SPEC_FULL.md §9 secret hygiene) — any message still addressed to the
// pre-rotation epoch is already rejected by RecvForMember's epoch check
// before a chain key is ever touched, so there is nothing left for those
// keys to do. Per-member catch-up to the new epoch (deriving fresh keys
// for each member) is an external collaborator's responsibility (the
// recovery/handshake subsystem) — Rotate only advances the channel-wide
// counter and retires the secrets that counter obsoletes.
func (c *State) Rotate(g gate.Gate) error {
	var ctx [8]byte
	binary.LittleEndian.PutUint64(ctx[:], c.Epoch)
	if err := gate.Check(g, "channel_rotate", ctx[:]); err != nil {
		return err
	}
	c.Epoch++
	for _, m := range c.Members {
		m.Ratchet.Zeroize()
	}
	return nil
}
