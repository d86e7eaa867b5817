// Package core holds the message-type tag, the error taxonomy, and the gate
// decision value shared by the ratchet and channel packages.
package core

// MsgType tags an envelope/header as belonging to the pairwise ratchet path
// or the channel-broadcast path. No permanent identifier is ever encoded
// alongside it.
type MsgType uint8

const (
	RatchetMsg MsgType = 1
	ChannelMsg MsgType = 2
)

// ReasonCode is an opaque policy reason, defined entirely by the gate
// implementation. The core never interprets these values.
type ReasonCode uint32

// GateDecision is the immutable result of a single gate query.
type GateDecision struct {
	Allowed     bool
	ReasonCodes []ReasonCode
	Human       string
}
