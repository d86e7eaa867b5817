package ratchet

import (
	"carthedge/core"
	"carthedge/gate"
)

// Status tags where a RatchetState sits in its (tiny) state machine. Future
// extensions (e.g. a Recovering status) are added as additional tags here,
// never as a subclass or a second status field.
type Status int

const (
	Running Status = iota
	Locked
)

// Chain-evolution info strings. Stable ASCII and part of the wire contract
// between peers, so they must never change independently on one side.
// Unlike the header, nonce and session-key domain strings, they carry no
// version segment.
var (
	infoChainStep  = []byte("carthedge/ratchet/ck")
	infoMessageKey = []byte("carthedge/ratchet/mk")
)

// State is the pairwise ratchet: a send chain, a receive chain, their
// counters, and a bounded skipped-key store for out-of-order receives. It
// owns its skipped store and DH keypair exclusively; nothing else holds a
// reference to them.
type State struct {
	Status Status

	RootKey       [32]byte
	ChainKeySend  [32]byte
	ChainKeyRecv  [32]byte

	SendCounter     uint64
	RecvCounter     uint64
	PrevSendCounter uint64

	DHLocal  *DHKeyPair
	DHRemote *[32]byte

	Epoch uint64

	Skipped *SkippedKeyStore
}

// DHKeyPair is a reserved placeholder for the future DH-ratchet extension
// (see SPEC_FULL.md §9); this package never generates or steps one.
// Concrete key material lives in crypto/key25519.
type DHKeyPair struct {
	Public [32]byte
}

// NewState constructs a fresh Running ratchet from session keys produced by
// DeriveSessionKeys (or any other handshake collaborator).
func NewState(root, chainKeySend, chainKeyRecv [32]byte) *State {
	return &State{
		Status:       Running,
		RootKey:      root,
		ChainKeySend: chainKeySend,
		ChainKeyRecv: chainKeyRecv,
		Skipped:      NewSkippedKeyStore(DefaultSkippedCapacity),
	}
}

// requireRunning is the gate every evolving operation starts with.
func (s *State) requireRunning() error {
	if s.Status != Running {
		return core.ErrRatchetLocked
	}
	return nil
}

// NextMessageKey derives the next send-side message key and evolves the
// send chain key forward, gated by ratchet_msg_key with op_context = the
// chain key as it stood before this call.
func (s *State) NextMessageKey(g gate.Gate) ([32]byte, error) {
	if err := s.requireRunning(); err != nil {
		return [32]byte{}, err
	}
	if err := gate.Check(g, "ratchet_msg_key", s.ChainKeySend[:]); err != nil {
		return [32]byte{}, err
	}

	mk, err := core.Expand32(s.ChainKeySend[:], infoMessageKey)
	if err != nil {
		return [32]byte{}, err
	}
	nextCK, err := core.Expand32(s.ChainKeySend[:], infoChainStep)
	if err != nil {
		return [32]byte{}, err
	}

	s.ChainKeySend = nextCK
	s.SendCounter++
	return mk, nil
}

// StepSend is the legacy send-step operation: it increments send_counter
// (recording the pre-step value in prev_send_counter) and, once the gate
// allows, evolves the chain key the same way NextMessageKey does. A denial
// rolls both counters back to their exact pre-call values — this rollback
// is the behavior S6 tests.
func (s *State) StepSend(g gate.Gate) error {
	if err := s.requireRunning(); err != nil {
		return err
	}

	prevSend, send := s.PrevSendCounter, s.SendCounter
	s.PrevSendCounter = s.SendCounter
	s.SendCounter++

	if err := gate.Check(g, "ratchet_msg_key", s.ChainKeySend[:]); err != nil {
		s.PrevSendCounter, s.SendCounter = prevSend, send
		return err
	}

	nextCK, err := core.Expand32(s.ChainKeySend[:], infoChainStep)
	if err != nil {
		s.PrevSendCounter, s.SendCounter = prevSend, send
		return err
	}
	s.ChainKeySend = nextCK
	return nil
}

// StepRecv evolves the receive chain key and increments recv_counter,
// gated by ratchet_step_recv with op_context = the chain key as it stood
// before this call.
func (s *State) StepRecv(g gate.Gate) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	if err := gate.Check(g, "ratchet_step_recv", s.ChainKeyRecv[:]); err != nil {
		return err
	}

	nextCK, err := core.Expand32(s.ChainKeyRecv[:], infoChainStep)
	if err != nil {
		return err
	}
	s.ChainKeyRecv = nextCK
	s.RecvCounter++
	return nil
}

// RecvMessageKey derives the message key for the chain key as it stands
// right now, without evolving anything further. Callers step the chain
// first (via StepRecv) and then call this.
func (s *State) RecvMessageKey() ([32]byte, error) {
	return core.Expand32(s.ChainKeyRecv[:], infoMessageKey)
}

// ForceRecover is the only transition out of Locked: gated by
// ratchet_recover with the literal context "force", it wipes every secret
// the old chain carried (SPEC_FULL.md §9 secret hygiene — the keys that
// got this ratchet locked must never be reused), then resets status to
// Running and increments epoch. The caller is responsible for re-seeding
// RootKey/ChainKeySend/ChainKeyRecv from a fresh handshake before sealing
// or opening anything else with this State.
func (s *State) ForceRecover(g gate.Gate) error {
	if err := gate.Check(g, "ratchet_recover", []byte("force")); err != nil {
		return err
	}
	s.Zeroize()
	s.Status = Running
	s.Epoch++
	return nil
}

// Lock moves the ratchet to Locked, halting all further crypto evolution
// until ForceRecover succeeds. Infallible, ungated.
func (s *State) Lock() {
	s.Status = Locked
}

// Zeroize overwrites every secret this State holds — root key, both chain
// keys, and any outstanding skipped message keys — with zero bytes. Callers
// invoke this once a State is no longer needed (session teardown) or no
// longer trustworthy (ForceRecover). It does not change Status or counters;
// a zeroized-but-not-recovered State is simply unusable until re-seeded.
func (s *State) Zeroize() {
	wipe(&s.RootKey)
	wipe(&s.ChainKeySend)
	wipe(&s.ChainKeyRecv)
	if s.Skipped != nil {
		s.Skipped.Zeroize()
	}
}

// Seal encodes header and seals plaintext under mk, gated by send_msg with
// op_context = the header hash. This is the pairwise counterpart to the
// channel receive path (SPEC_FULL.md §4.7).
func Seal(g gate.Gate, header Header, mk [32]byte, plaintext []byte) (*core.Envelope, error) {
	hh := header.Hash()
	if err := gate.Check(g, "send_msg", hh[:]); err != nil {
		return nil, err
	}
	return core.SealEnvelope(core.RatchetMsg, 0, header.Encode(), hh[:], mk[:], plaintext)
}

// Open validates that env is bound to header (matching encoded header bytes
// and AAD == header hash) before decrypting under mk, gated by decrypt_msg.
func Open(g gate.Gate, header Header, mk [32]byte, env *core.Envelope) ([]byte, error) {
	hh := header.Hash()
	if err := gate.Check(g, "decrypt_msg", hh[:]); err != nil {
		return nil, err
	}
	if len(env.AAD) != len(hh) || string(env.AAD) != string(hh[:]) {
		return nil, core.ErrInvalidEnvelope
	}
	if string(env.Header) != string(header.Encode()) {
		return nil, core.ErrInvalidEnvelope
	}
	return env.Open(mk[:])
}
