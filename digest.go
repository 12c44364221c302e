package tokenindex

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/tamirms/tokenindex/internal/fold"
)

// Digest returns a 128-bit fingerprint of idx's key set. Two indexes with the
// same case sensitivity and the same keys (after folding) have the same
// digest regardless of backend, insertion order or values.
//
// Use it to share one index between vocabularies that turn out identical:
//
//	seen := map[[16]byte]tokenindex.Index[int]{}
//	d := tokenindex.Digest(idx)
//	if prev, ok := seen[d]; ok {
//	    idx = prev
//	}
func Digest[V any](idx Index[V]) [16]byte {
	var lo, hi uint64
	var buf [17]byte
	for _, k := range idx.Keys() {
		// Summing per-key hashes makes the result order-independent.
		h := xxh3.HashString128(fold.String(k, !idx.CaseSensitive()))
		lo += h.Lo
		hi += h.Hi
	}
	binary.LittleEndian.PutUint64(buf[0:8], lo)
	binary.LittleEndian.PutUint64(buf[8:16], hi)
	if idx.CaseSensitive() {
		buf[16] = 1
	}
	return xxh3.Hash128(buf[:]).Bytes()
}
