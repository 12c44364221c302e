package tokenindex

import (
	"encoding/binary"
	"hash/fnv"
	randv2 "math/rand/v2"
	"strings"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a deterministic RNG seeded from the test name, so each
// subtest gets its own reproducible stream.
func newTestRNG(t testing.TB) *randv2.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return randv2.New(randv2.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomKeys draws n keys of length 1..maxLen over alphabet.
func randomKeys(rng *randv2.Rand, n, maxLen int, alphabet string) []string {
	keys := make([]string, n)
	var sb strings.Builder
	for i := range keys {
		sb.Reset()
		for range 1 + rng.IntN(maxLen) {
			sb.WriteByte(alphabet[rng.IntN(len(alphabet))])
		}
		keys[i] = sb.String()
	}
	return keys
}

// buildWith builds an index of keys (value = position) on a forced backend.
func buildWith(t testing.TB, backend BackendID, caseSensitive bool, keys []string) Index[int] {
	t.Helper()
	b := NewBuilder[int](WithBackend(backend), CaseSensitive(caseSensitive))
	for i, k := range keys {
		b.With(k, i)
	}
	idx, err := b.Build()
	if err != nil {
		t.Fatalf("build %s: %v", backend, err)
	}
	return idx
}

var allBackends = []BackendID{BackendTernary, BackendArray, BackendTree}
