package signer_schnorr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"carthedge/crypto/key25519"
)

func TestSignAndVerify(t *testing.T) {
	privKey, err := key25519.New()
	assert.NoError(t, err)
	pubKey, err := privKey.Public()
	assert.NoError(t, err)

	tests := []struct {
		name string
		msg  []byte
	}{
		{"valid message", []byte("test message")},
		{"empty message", []byte("")},
		{"another valid message", []byte("another test message")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := Sign(*privKey, tt.msg)
			assert.NoError(t, err)
			assert.NotNil(t, sig)

			assert.NoError(t, Verify(*pubKey, tt.msg, sig))

			wrongMsg := []byte("wrong message")
			assert.Error(t, Verify(*pubKey, wrongMsg, sig))

			wrongSig, _ := Sign(*privKey, wrongMsg)
			assert.Error(t, Verify(*pubKey, tt.msg, wrongSig))
		})
	}
}
