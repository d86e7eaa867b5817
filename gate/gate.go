// Package gate defines the pluggable policy authority every sensitive core
// transition consults before it runs. The core depends only on the Gate
// interface; this package also ships AllowAllGate, a minimal in-memory stub
// for offline tests and local runs.
package gate

import "carthedge/core"

// Gate is the single-method capability the core calls before every gated
// transition. op_name identifies the operation (see the table in SPEC_FULL.md
// §6); op_context is the operation-specific binding (a chain key, a header
// hash, a literal, ...). The core treats the call as synchronous and
// potentially slow, but never cancels it.
type Gate interface {
	GateCheck(opName string, opContext []byte) (core.GateDecision, error)
}

// AllowAllGate allows every operation. It exists for offline tests and local
// demo runs; a production deployment wires a real policy authority behind
// the same interface.
type AllowAllGate struct{}

func (AllowAllGate) GateCheck(opName string, _ []byte) (core.GateDecision, error) {
	return core.GateDecision{
		Allowed: true,
		Human:   "ALLOW (stub) op=" + opName,
	}, nil
}

// DenyGate denies every operation with a fixed reason. Useful in tests that
// exercise the GateBlocked / rollback paths.
type DenyGate struct {
	Reason string
}

func (d DenyGate) GateCheck(opName string, _ []byte) (core.GateDecision, error) {
	reason := d.Reason
	if reason == "" {
		reason = "DENY (stub) op=" + opName
	}
	return core.GateDecision{Allowed: false, Human: reason}, nil
}

// RequireAllowed enforces a GateDecision uniformly, turning a deny into a
// GateBlockedError that carries the gate's human string verbatim, with any
// reason codes appended.
func RequireAllowed(dec core.GateDecision) error {
	if dec.Allowed {
		return nil
	}
	return core.NewGateBlocked(dec)
}

// Check runs the gate and immediately enforces the decision, the shape every
// call site in ratchet/channel uses.
func Check(g Gate, opName string, opContext []byte) error {
	dec, err := g.GateCheck(opName, opContext)
	if err != nil {
		return err
	}
	return RequireAllowed(dec)
}
