package ratchet

import (
	"sort"

	"carthedge/core"
)

// DefaultSkippedCapacity matches the spec's default bound of 64 outstanding
// skipped message keys per ratchet.
const DefaultSkippedCapacity = 64

// SkippedKeyStore is a bounded mapping from counter to message key, used to
// decrypt out-of-order arrivals. It implements the rejecting overflow
// variant (SPEC_FULL.md §9): once the store is at capacity, Put refuses the
// insert rather than silently evicting the oldest entry.
type SkippedKeyStore struct {
	capacity int
	entries  map[uint64][32]byte
}

// NewSkippedKeyStore constructs a store with the given capacity. A capacity
// of 0 falls back to DefaultSkippedCapacity.
func NewSkippedKeyStore(capacity int) *SkippedKeyStore {
	if capacity <= 0 {
		capacity = DefaultSkippedCapacity
	}
	return &SkippedKeyStore{
		capacity: capacity,
		entries:  make(map[uint64][32]byte),
	}
}

// Put inserts counter -> key. It returns ErrSkippedStoreError if the store is
// already at capacity and counter is not already present.
func (s *SkippedKeyStore) Put(counter uint64, key [32]byte) error {
	if _, exists := s.entries[counter]; !exists && len(s.entries) >= s.capacity {
		return core.ErrSkippedStoreError
	}
	s.entries[counter] = key
	return nil
}

// Take removes and returns the key for counter, if present. The store's own
// copy is wiped immediately after being handed back; ownership of the
// returned key passes to the caller, who is responsible for wiping it once
// it has served its single use (SealEnvelope/Open consume a message key
// exactly once).
func (s *SkippedKeyStore) Take(counter uint64) (*[32]byte, bool) {
	stored, ok := s.entries[counter]
	if !ok {
		return nil, false
	}
	delete(s.entries, counter)

	out := stored
	wipe(&stored)
	return &out, true
}

// Len returns the number of outstanding skipped keys, for tests.
func (s *SkippedKeyStore) Len() int {
	return len(s.entries)
}

// Zeroize wipes every outstanding entry in place before dropping it. Called
// whenever the owning State is zeroized, so no skipped message key outlives
// the ratchet it was derived from.
func (s *SkippedKeyStore) Zeroize() {
	for counter, entry := range s.entries {
		wipe(&entry)
		delete(s.entries, counter)
	}
}

// counters returns the outstanding counters in ascending order, for tests
// that want to assert on ordering.
func (s *SkippedKeyStore) counters() []uint64 {
	out := make([]uint64, 0, len(s.entries))
	for c := range s.entries {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func wipe(key *[32]byte) {
	for i := range key {
		key[i] = 0
	}
}
