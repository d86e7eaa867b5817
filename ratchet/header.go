// Package ratchet implements the pairwise send chain / receive chain state
// machine: the RatchetHeader wire encoding, the bounded skipped-key store,
// and the gated RatchetState operations.
package ratchet

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"carthedge/core"
)

var ratchetHeaderDomain = []byte("carthedge/v0.2.2.2/header_hash")

// Header is the canonical pairwise-ratchet message header. DHPub is reserved
// for a future DH-ratchet extension (see the design notes on DH-ratcheting
// scope); no sender in this module sets it, though Encode and DecodeHeader
// carry it when present.
type Header struct {
	MsgType      core.MsgType
	Counter      uint64
	PrevCounter  uint64
	DHPub        *[32]byte
}

// Encode produces the canonical byte encoding:
// [msg_type:1][counter:8 LE][prev_counter:8 LE][dh_flag:1][dh_pub:32?]
func (h Header) Encode() []byte {
	out := make([]byte, 0, 1+8+8+1+32)
	out = append(out, byte(h.MsgType))

	var counterBuf, prevBuf [8]byte
	binary.LittleEndian.PutUint64(counterBuf[:], h.Counter)
	binary.LittleEndian.PutUint64(prevBuf[:], h.PrevCounter)
	out = append(out, counterBuf[:]...)
	out = append(out, prevBuf[:]...)

	if h.DHPub == nil {
		out = append(out, 0)
	} else {
		out = append(out, 1)
		out = append(out, h.DHPub[:]...)
	}
	return out
}

// DecodeHeader parses the canonical encoding produced by Encode.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < 1+8+8+1 {
		return Header{}, core.ErrInvalidEnvelope
	}
	h := Header{MsgType: core.MsgType(data[0])}
	h.Counter = binary.LittleEndian.Uint64(data[1:9])
	h.PrevCounter = binary.LittleEndian.Uint64(data[9:17])

	dhFlag := data[17]
	switch dhFlag {
	case 0:
		if len(data) != 18 {
			return Header{}, core.ErrInvalidEnvelope
		}
	case 1:
		if len(data) != 18+32 {
			return Header{}, core.ErrInvalidEnvelope
		}
		var pk [32]byte
		copy(pk[:], data[18:18+32])
		h.DHPub = &pk
	default:
		return Header{}, core.ErrInvalidEnvelope
	}
	return h, nil
}

// Hash returns the domain-separated SHA-256 header hash used as AEAD
// associated data and as gate context.
func (h Header) Hash() [32]byte {
	hash := sha256.New()
	hash.Write(ratchetHeaderDomain)
	hash.Write(h.Encode())
	var out [32]byte
	copy(out[:], hash.Sum(nil))
	return out
}

// Equal reports whether two headers encode identically.
func (h Header) Equal(other Header) bool {
	return bytes.Equal(h.Encode(), other.Encode())
}
