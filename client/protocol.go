package client

import (
	"fmt"

	"carthedge/common"
	"carthedge/core"
	"carthedge/crypto/fingerprint"
	"carthedge/handshake"
	"carthedge/ratchet"
)

// signalInitiatorHandshake runs X3DH against the already-fetched recipient
// bundle and seeds app.ratchetState, attaching the one-shot handshake
// bundle the responder needs to mirror the agreement.
func (app *ChatApp) signalInitiatorHandshake() error {
	result, err := handshake.PerformInitiatorAgreement(app.identity.IdentityKey, app.otherBundle)
	if err != nil {
		return fmt.Errorf("perform initiator agreement: %w", err)
	}

	app.ratchetState, err = handshake.NewInitiatorRatchet(app.gate, result, app.otherBundle)
	if err != nil {
		return fmt.Errorf("seed initiator ratchet: %w", err)
	}

	app.pendingHandshake = &common.HandshakeBundle{
		EphemeralPubKey:   result.Ephemeral.Pub,
		UsedOneTimePrekey: app.otherBundle.OneTimePrekey != nil,
	}
	return nil
}

// signalResponderHandshake mirrors the initiator's agreement once the first
// incoming message carries a HandshakeBundle.
func (app *ChatApp) signalResponderHandshake(hs *common.HandshakeBundle) error {
	shared, err := handshake.PerformResponderAgreement(app.identity, handshake.RemoteInitiatorKeys{
		IdentityKey: app.otherBundle.IdentityKey,
		Ephemeral:   hs.EphemeralPubKey,
	}, hs.UsedOneTimePrekey)
	if err != nil {
		return fmt.Errorf("perform responder agreement: %w", err)
	}

	app.ratchetState, err = handshake.NewResponderRatchet(app.gate, shared, hs.EphemeralPubKey, app.identity)
	if err != nil {
		return fmt.Errorf("seed responder ratchet: %w", err)
	}
	return nil
}

func (app *ChatApp) encryptMessage(msg string) (*common.MessageBundle, error) {
	if app.ratchetState == nil {
		if err := app.signalInitiatorHandshake(); err != nil {
			return nil, fmt.Errorf("handshake: %w", err)
		}
	}

	// Step the send chain first and derive the message key from the stepped
	// chain key, the same order recvPairwise uses on the receiving side.
	counter := app.ratchetState.SendCounter
	prevCounter := app.ratchetState.PrevSendCounter
	if err := app.ratchetState.StepSend(app.gate); err != nil {
		return nil, fmt.Errorf("step send chain: %w", err)
	}
	mk, err := core.Expand32(app.ratchetState.ChainKeySend[:], []byte("carthedge/ratchet/mk"))
	if err != nil {
		return nil, fmt.Errorf("derive message key: %w", err)
	}

	header := ratchet.Header{MsgType: core.RatchetMsg, Counter: counter, PrevCounter: prevCounter}
	env, err := ratchet.Seal(app.gate, header, mk, []byte(msg))
	if err != nil {
		return nil, fmt.Errorf("seal message: %w", err)
	}

	bundle := &common.MessageBundle{
		From:      app.userID,
		To:        app.recipientID,
		Envelope:  *env,
		Handshake: app.pendingHandshake,
	}
	app.pendingHandshake = nil
	return bundle, nil
}

func (app *ChatApp) decryptMessage(bundle *common.MessageBundle) ([]byte, error) {
	if app.ratchetState == nil {
		if bundle.Handshake == nil {
			return nil, fmt.Errorf("no ratchet established and message carries no handshake")
		}
		if err := app.signalResponderHandshake(bundle.Handshake); err != nil {
			return nil, fmt.Errorf("handshake: %w", err)
		}
	}

	header, err := ratchet.DecodeHeader(bundle.Envelope.Header)
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	return app.recvPairwise(header, &bundle.Envelope)
}

// recvPairwise dispatches on counter order the way the channel receive path
// does (SPEC_FULL.md §4.5), minus the member table and epoch preconditions
// that only make sense for a multi-member channel. It makes no
// skipped_key_use gate call: a key for an earlier counter is taken from the
// skipped store without consulting the gate.
func (app *ChatApp) recvPairwise(header ratchet.Header, env *core.Envelope) ([]byte, error) {
	expected := app.ratchetState.RecvCounter

	switch {
	case header.Counter < expected:
		mk, ok := app.ratchetState.Skipped.Take(header.Counter)
		if !ok {
			return nil, core.ErrReplayDetected
		}
		return ratchet.Open(app.gate, header, *mk, env)

	case header.Counter > expected:
		for app.ratchetState.RecvCounter < header.Counter {
			if err := app.ratchetState.StepRecv(app.gate); err != nil {
				return nil, err
			}
			mk, err := app.ratchetState.RecvMessageKey()
			if err != nil {
				return nil, err
			}
			if err := app.ratchetState.Skipped.Put(app.ratchetState.RecvCounter-1, mk); err != nil {
				return nil, err
			}
		}
		fallthrough

	default:
		if err := app.ratchetState.StepRecv(app.gate); err != nil {
			return nil, err
		}
		mk, err := app.ratchetState.RecvMessageKey()
		if err != nil {
			return nil, err
		}
		return ratchet.Open(app.gate, header, mk, env)
	}
}

// fingerprints renders both parties' identity-key safety numbers, lower
// userID's half first, for the client's "verify contact" display.
func (app *ChatApp) fingerprints() (string, error) {
	ownPub, err := app.identity.IdentityKey.Public()
	if err != nil {
		return "", fmt.Errorf("derive own public key: %w", err)
	}
	own, err := fingerprint.Fingerprint(*ownPub, []byte(app.userID))
	if err != nil {
		return "", fmt.Errorf("own fingerprint: %w", err)
	}
	other, err := fingerprint.Fingerprint(app.otherBundle.IdentityKey, []byte(app.recipientID))
	if err != nil {
		return "", fmt.Errorf("peer fingerprint: %w", err)
	}

	if app.userID > app.recipientID {
		own, other = other, own
	}

	var combined [60]int
	copy(combined[:30], own[:])
	copy(combined[30:], other[:])

	var out string
	for i, digit := range combined {
		out += fmt.Sprintf("%d", digit)
		if (i+1)%5 == 0 && i != len(combined)-1 {
			out += " "
		}
	}
	return out, nil
}
