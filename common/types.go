// Package common holds the wire types shared between the server relay and
// the client: the opaque envelope bundle and the one-shot handshake bundle
// an initiator attaches to its first message.
package common

import (
	"carthedge/core"
	"carthedge/crypto/key25519"
)

// MessageBundle is what travels over the WebSocket relay and through the
// Redis offline queue. The server only ever reads To and sets From; Envelope is
// opaque ciphertext it forwards without inspecting.
type MessageBundle struct {
	From      string           `json:"from"`
	To        string           `json:"to"`
	Envelope  core.Envelope    `json:"envelope"`
	Handshake *HandshakeBundle `json:"handshake,omitempty"`
}

// HandshakeBundle is attached to an initiator's first message so the
// responder can complete its side of the X3DH agreement and seed a
// matching ratchet before it can decrypt anything.
type HandshakeBundle struct {
	EphemeralPubKey   key25519.PublicKey `json:"ephemeral_pub_key"`
	UsedOneTimePrekey bool               `json:"used_one_time_prekey"`
}
