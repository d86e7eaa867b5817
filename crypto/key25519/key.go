// Package key25519 wraps the Ed25519-curve kyber suite as the identity,
// signed-prekey, and ephemeral key type shared by the handshake and the
// reserved ratchet DH-step extension (SPEC_FULL.md §9).
package key25519

import (
	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/suites"
)

type (
	// PrivateKey is a 32-byte scalar.
	PrivateKey [32]byte
	// PublicKey is a 32-byte point.
	PublicKey [32]byte

	// Pair bundles a private key with its public counterpart.
	Pair struct {
		Priv PrivateKey
		Pub  PublicKey
	}
)

// Suite is the edwards25519 curve used for every handshake and reserved
// DH-ratchet key in this module.
var Suite = suites.MustFind("Ed25519")

// Generate produces a fresh random key pair.
func Generate() (*Pair, error) {
	priv, err := New()
	if err != nil {
		return nil, err
	}
	pub, err := priv.Public()
	if err != nil {
		return nil, err
	}
	return &Pair{Priv: *priv, Pub: *pub}, nil
}

// New draws a fresh random private key.
func New() (*PrivateKey, error) {
	privK := Suite.Scalar().Pick(Suite.RandomStream())
	raw, err := privK.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var out PrivateKey
	copy(out[:], raw)
	return &out, nil
}

// Public derives the public key for priv.
func (priv *PrivateKey) Public() (*PublicKey, error) {
	scalar, err := priv.ToScalar()
	if err != nil {
		return nil, err
	}
	point := Suite.Point().Mul(scalar, nil)
	raw, err := point.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var out PublicKey
	copy(out[:], raw)
	return &out, nil
}

// ToScalar decodes priv into a kyber.Scalar for curve arithmetic.
func (priv *PrivateKey) ToScalar() (kyber.Scalar, error) {
	s := Suite.Scalar()
	if err := s.UnmarshalBinary(priv[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// ToPoint decodes pub into a kyber.Point for curve arithmetic.
func (pub *PublicKey) ToPoint() (kyber.Point, error) {
	p := Suite.Point()
	if err := p.UnmarshalBinary(pub[:]); err != nil {
		return nil, err
	}
	return p, nil
}

// Equals is a constant-time-agnostic comparison suitable for public key
// identity checks (never use on secret material).
func (pub *PublicKey) Equals(other *PublicKey) bool {
	if pub == nil || other == nil {
		return false
	}
	a, b := [32]byte(*pub), [32]byte(*other)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
