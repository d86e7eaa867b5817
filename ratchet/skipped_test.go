package ratchet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carthedge/core"
)

func key(b byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestSkippedStorePutTake(t *testing.T) {
	s := NewSkippedKeyStore(4)
	require.NoError(t, s.Put(5, key(5)))
	require.NoError(t, s.Put(2, key(2)))
	assert.Equal(t, 2, s.Len())

	got, ok := s.Take(5)
	require.True(t, ok)
	assert.Equal(t, key(5), *got)
	assert.Equal(t, 1, s.Len())

	_, ok = s.Take(5)
	assert.False(t, ok)
}

func TestSkippedStoreRejectsOverflow(t *testing.T) {
	s := NewSkippedKeyStore(2)
	require.NoError(t, s.Put(1, key(1)))
	require.NoError(t, s.Put(2, key(2)))

	err := s.Put(3, key(3))
	assert.ErrorIs(t, err, core.ErrSkippedStoreError)
	assert.Equal(t, 2, s.Len())
}

func TestSkippedStoreReinsertExistingCounterNeverOverflows(t *testing.T) {
	s := NewSkippedKeyStore(1)
	require.NoError(t, s.Put(7, key(7)))
	// Re-putting an already-present counter must not count as growth.
	require.NoError(t, s.Put(7, key(9)))
	assert.Equal(t, 1, s.Len())
}

func TestSkippedStoreOrderingIsByCounter(t *testing.T) {
	s := NewSkippedKeyStore(8)
	require.NoError(t, s.Put(9, key(9)))
	require.NoError(t, s.Put(1, key(1)))
	require.NoError(t, s.Put(4, key(4)))
	assert.Equal(t, []uint64{1, 4, 9}, s.counters())
}
