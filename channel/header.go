// Package channel implements the multi-member broadcast extension: an
// ordered sequence of members (each owning an independent ratchet), a
// channel-wide epoch, and the per-member receive path that dispatches on
// counter order into the normal, fast-forward, or skipped-take branch.
package channel

import (
	"crypto/sha256"
	"encoding/binary"

	"carthedge/core"
)

var channelHeaderDomain = []byte("carthedge/v0.3.5/channel_header_hash")

// Header is the fixed 21-byte channel message header. member_ix addresses a
// position in State.Members, never a permanent identifier.
type Header struct {
	MsgType  core.MsgType
	Epoch    uint64
	Counter  uint64
	MemberIx uint32
}

// HeaderSize is the fixed encoded size: [msg_type:1][epoch:8][counter:8][member_ix:4].
const HeaderSize = 1 + 8 + 8 + 4

// Encode produces the canonical 21-byte little-endian encoding.
func (h Header) Encode() []byte {
	out := make([]byte, 0, HeaderSize)
	out = append(out, byte(h.MsgType))

	var epochBuf, counterBuf [8]byte
	binary.LittleEndian.PutUint64(epochBuf[:], h.Epoch)
	binary.LittleEndian.PutUint64(counterBuf[:], h.Counter)
	out = append(out, epochBuf[:]...)
	out = append(out, counterBuf[:]...)

	var memberBuf [4]byte
	binary.LittleEndian.PutUint32(memberBuf[:], h.MemberIx)
	out = append(out, memberBuf[:]...)
	return out
}

// DecodeHeader parses the 21-byte canonical encoding.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) != HeaderSize {
		return Header{}, core.ErrInvalidEnvelope
	}
	h := Header{MsgType: core.MsgType(data[0])}
	h.Epoch = binary.LittleEndian.Uint64(data[1:9])
	h.Counter = binary.LittleEndian.Uint64(data[9:17])
	h.MemberIx = binary.LittleEndian.Uint32(data[17:21])
	return h, nil
}

// Hash returns the domain-separated SHA-256 header hash used as AEAD
// associated data and as gate context.
func (h Header) Hash() [32]byte {
	hash := sha256.New()
	hash.Write(channelHeaderDomain)
	hash.Write(h.Encode())
	var out [32]byte
	copy(out[:], hash.Sum(nil))
	return out
}
