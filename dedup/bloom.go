package dedup

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	farm "github.com/dgryski/go-farm"
)

// DefaultFPP is the default target false positive probability for the
// bloom-filter store.
const DefaultFPP = 0.001

// maxBloomHashes caps the number of hash functions; beyond this the
// per-key cost grows with no useful accuracy gain.
const maxBloomHashes = 16

// bloomStore is the probabilistic membership set. A "not seen" answer
// is always exact; a "seen" answer may be wrong with probability
// approaching the configured target as inserts approach the expected
// count, so a small fraction of unique pairs may be dropped. It never
// re-accepts a key that was actually recorded.
type bloomStore struct {
	bits  *bitset.BitSet
	nbits uint64
	k     uint64
	n     uint64 // keys inserted so far
}

// NewBloomStore returns a bloom-filter Store sized for the expected
// number of distinct keys and the target false positive probability.
// A fpp outside (0, 1) falls back to DefaultFPP.
func NewBloomStore(expected uint64, fpp float64) Store {
	nbits, k := bloomParams(expected, fpp)
	return &bloomStore{
		bits:  bitset.New(uint(nbits)),
		nbits: nbits,
		k:     k,
	}
}

// bloomParams computes the optimal filter dimensions for n expected
// elements at false positive probability p:
//
//	m = -n·ln(p) / ln²(2)    bits
//	k = (m/n)·ln(2)          hash functions
func bloomParams(expected uint64, fpp float64) (nbits, k uint64) {
	if expected == 0 {
		expected = 1
	}
	if fpp <= 0 || fpp >= 1 {
		fpp = DefaultFPP
	}
	m := math.Ceil(-float64(expected) * math.Log(fpp) / (math.Ln2 * math.Ln2))
	nbits = uint64(m)
	if nbits < 64 {
		nbits = 64
	}
	k = uint64(math.Round(m / float64(expected) * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > maxBloomHashes {
		k = maxBloomHashes
	}
	return nbits, k
}

func (b *bloomStore) TestAndRecord(key Key) (bool, error) {
	// Double hashing: bit_i = h1 + i·h2 (mod m), with h2 odd.
	h1 := farm.Hash64WithSeed(key[:], 0)
	h2 := farm.Hash64WithSeed(key[:], 1) | 1

	seen := true
	for i := uint64(0); i < b.k; i++ {
		bit := uint((h1 + i*h2) % b.nbits)
		if !b.bits.Test(bit) {
			seen = false
			b.bits.Set(bit)
		}
	}
	b.n++
	return !seen, nil
}

func (b *bloomStore) Close() error { return nil }

// estimatedFPP returns the filter's current false positive
// probability, (1 - e^(-kn/m))^k, given the inserts so far.
func (b *bloomStore) estimatedFPP() float64 {
	if b.n == 0 {
		return 0
	}
	kn := float64(b.k) * float64(b.n)
	return math.Pow(1-math.Exp(-kn/float64(b.nbits)), float64(b.k))
}
