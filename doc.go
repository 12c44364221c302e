// Package tokenindex implements bounded-memory lookup of known tokens
// (protocol method names, header field names, fixed vocabularies) in input
// that arrives as strings, byte slices or views into larger buffers.
//
// The main encoding is a ternary search trie flattened into fixed-capacity
// row storage with 16-bit child indices. Lookups never allocate, and a Put
// that would exceed the row budget fails cleanly instead of growing memory,
// which keeps the structure safe to fill from untrusted input.
//
// # Basic Usage
//
// Building an index:
//
//	idx, err := tokenindex.NewBuilder[int]().
//	    With("Content-Type", 1).
//	    With("Content-Length", 2).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Querying:
//
//	v, ok := idx.Get("content-type")          // exact, case-folded
//	v, ok = idx.GetBestBytes(requestLine)     // longest stored prefix
//	v, ok = idx.GetSpan(tokenindex.Span{Buf: buf, Off: 8, Len: 12})
//
// # Backends
//
// The Builder picks one of three encodings (see SelectBackend):
//
//   - array: dense per-row child tables, for small 7-bit alphabets
//   - ternary: the flattened ternary trie, up to MaxCapacity rows
//   - tree: an unbounded B-tree, when the contents exceed MaxCapacity rows
//     and no ceiling was set
//
// # Package Structure
//
//   - Public API: builder.go (NewBuilder, Build, BuildMutable), index.go
//     (Index, Mutable, Span, Stats)
//   - Configuration: builder_options.go (BuildOption, With* functions)
//   - Planning: capacity.go (RequiredCapacity, DeriveAlphabet, SelectBackend)
//   - Backend dispatch: algorithm.go (BackendID, backend interface)
//   - Backends: internal/ternary/, internal/arraytrie/, internal/treetrie/
//   - Utilities: builder_parallel.go (BuildAll), digest.go (Digest)
//   - Vocabulary files: vocab/
//   - HTTP method and header indexes: httptoken/
package tokenindex
