package channel

import "carthedge/ratchet"

// Member is one participant's independent ratchet inside a channel. It owns
// its ratchet exclusively — no other member or channel holds a reference to
// it. The wire address for a member is its ordinal position inside
// State.Members (its member_ix), never a stored identifier.
type Member struct {
	Ratchet *ratchet.State
}

// NewMember wraps an already-seeded ratchet state as a channel member.
func NewMember(state *ratchet.State) *Member {
	return &Member{Ratchet: state}
}
