// Package sampling provides a deterministic, keyed pseudo-random byte
// source used throughout the ring, gaussian and trapdoor packages.
//
// Grounded on the *sampling.Source type used throughout this module's
// gaussian/ternary/uniform samplers (imported from
// github.com/Pro7ech/lattigo/utils/sampling with exactly the Read/Uint64
// shape used below). Rebuilt here keyed on blake3 (github.com/zeebo/blake3),
// the CSPRNG choice carried by tuneinsight-lattigo's go.mod, whose own PRNG
// (ring/prng.go's CRPGenerator) plays the same "deterministic, reseedable,
// per-thread" role this package fills.
package sampling

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/zeebo/blake3"
)

// Source is a deterministic byte stream derived from a 32-byte key via
// blake3's XOF mode. Two Sources built from the same key produce
// identical output, which is what lets the sampler entry points of
// spec.md §6 be reproduced exactly from a seed in tests.
//
// Per spec.md §5's "Discrete Gaussian generator state: per-thread" policy,
// a Source is not safe for concurrent use; callers that fan out across
// goroutines derive one Source per worker via Fork.
type Source struct {
	key    [32]byte
	xof    *blake3.Hasher
	reader io.Reader
}

// NewSource builds a Source from an explicit 32-byte key, for
// reproducible, seeded sampling.
func NewSource(key [32]byte) *Source {
	s := &Source{key: key}
	s.reset()
	return s
}

// NewSeededSource derives a 32-byte key from an arbitrary-length seed via
// blake3, then builds a Source from it.
func NewSeededSource(seed []byte) *Source {
	var key [32]byte
	sum := blake3.Sum256(seed)
	copy(key[:], sum[:])
	return NewSource(key)
}

// NewRandomSource builds a Source keyed from the operating system's CSPRNG.
func NewRandomSource() *Source {
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		panic(err)
	}
	return NewSource(key)
}

func (s *Source) reset() {
	h := blake3.New()
	h.Write(s.key[:])
	s.xof = h
	s.reader = h.Digest()
}

// Read fills p with pseudo-random bytes derived from the source's key.
// Never returns an error; satisfies io.Reader.
func (s *Source) Read(p []byte) (int, error) {
	return io.ReadFull(s.reader, p)
}

// Uint64 returns the next 8 bytes of the stream as a little-endian uint64,
// matching the Source.Uint64() call sites used across this module's samplers.
func (s *Source) Uint64() uint64 {
	var b [8]byte
	_, _ = s.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Fork derives an independent child Source keyed on this Source's key
// mixed with a domain-separating index, for safe per-goroutine use.
func (s *Source) Fork(index uint64) *Source {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)
	h := blake3.New()
	h.Write(s.key[:])
	h.Write(idx[:])
	sum := h.Sum(nil)
	var childKey [32]byte
	copy(childKey[:], sum)
	return NewSource(childKey)
}

// Key returns the 32-byte key this Source was built from, so the same
// stream can be reproduced later.
func (s *Source) Key() [32]byte { return s.key }
