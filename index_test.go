package tokenindex

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	tierrors "github.com/tamirms/tokenindex/errors"
)

func TestBestMatchExamples(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		query string
		want  string
		found bool
	}{
		{"longer input", []string{"application"}, "applicationXYZ", "application", true},
		{"longest wins", []string{"app", "apple"}, "applesauce", "apple", true},
		{"falls back", []string{"app", "apple"}, "application", "app", true},
		{"no match", []string{"app", "apple"}, "ap", "", false},
		{"folded", []string{"Content-"}, "content-type", "Content-", true},
	}

	for _, backend := range allBackends {
		for _, tc := range tests {
			t.Run(backend.String()+"/"+tc.name, func(t *testing.T) {
				b := NewBuilder[string](WithBackend(backend))
				for _, k := range tc.keys {
					b.With(k, k)
				}
				idx, err := b.Build()
				if err != nil {
					t.Fatal(err)
				}
				buf := []byte("xx" + tc.query + "yy")
				span := Span{Buf: buf, Off: 2, Len: len(tc.query)}
				for name, get := range map[string]func() (string, bool){
					"string": func() (string, bool) { return idx.GetBest(tc.query) },
					"bytes":  func() (string, bool) { return idx.GetBestBytes([]byte(tc.query)) },
					"span":   func() (string, bool) { return idx.GetBestSpan(span) },
				} {
					got, ok := get()
					if got != tc.want || ok != tc.found {
						t.Errorf("%s: GetBest(%q) = (%q, %t), want (%q, %t)", name, tc.query, got, ok, tc.want, tc.found)
					}
				}
			})
		}
	}
}

func TestExactGet(t *testing.T) {
	keys := []string{"GET", "POST", "Host", "Content-Type", "Content-Length"}
	for _, backend := range allBackends {
		t.Run(backend.String(), func(t *testing.T) {
			idx := buildWith(t, backend, false, keys)
			if idx.Len() != len(keys) || idx.IsEmpty() {
				t.Fatalf("Len() = %d, want %d", idx.Len(), len(keys))
			}
			for i, k := range keys {
				for _, q := range []string{k, toggleCase(k)} {
					if v, ok := idx.Get(q); !ok || v != i {
						t.Errorf("Get(%q) = (%d, %t), want %d", q, v, ok, i)
					}
					if v, ok := idx.GetSpan(SpanOf([]byte(q))); !ok || v != i {
						t.Errorf("GetSpan(%q) = (%d, %t), want %d", q, v, ok, i)
					}
					// An exact key is its own best match.
					if v, ok := idx.GetBest(q); !ok || v != i {
						t.Errorf("GetBest(%q) = (%d, %t), want %d", q, v, ok, i)
					}
				}
			}
			for _, q := range []string{"", "G", "GE", "GETS", "Content", "Host:"} {
				if _, ok := idx.Get(q); ok {
					t.Errorf("Get(%q) hit", q)
				}
			}

			sensitive := buildWith(t, backend, true, keys)
			if _, ok := sensitive.Get("get"); ok {
				t.Error("case-sensitive index matched get")
			}
			if v, ok := sensitive.Get("GET"); !ok || v != 0 {
				t.Errorf("case-sensitive Get(GET) = (%d, %t)", v, ok)
			}
		})
	}
}

func toggleCase(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
		case c >= 'A' && c <= 'Z':
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}

func TestBackendsAgree(t *testing.T) {
	for _, cs := range []bool{false, true} {
		t.Run(fmt.Sprintf("cs=%t", cs), func(t *testing.T) {
			rng := newTestRNG(t)
			keys := randomKeys(rng, 400, 6, "abcXYZ-")
			queries := append(randomKeys(rng, 1000, 9, "abcxyzXYZ-!"), keys...)

			ref := buildWith(t, BackendTernary, cs, keys)
			for _, backend := range []BackendID{BackendArray, BackendTree} {
				idx := buildWith(t, backend, cs, keys)
				if idx.Len() != ref.Len() {
					t.Fatalf("%s: Len() = %d, ternary has %d", backend, idx.Len(), ref.Len())
				}
				for _, q := range queries {
					wv, wok := ref.Get(q)
					gv, gok := idx.Get(q)
					if wv != gv || wok != gok {
						t.Fatalf("%s: Get(%q) = (%d, %t), ternary (%d, %t)", backend, q, gv, gok, wv, wok)
					}
					wv, wok = ref.GetBest(q)
					gv, gok = idx.GetBestBytes([]byte(q))
					if wv != gv || wok != gok {
						t.Fatalf("%s: GetBest(%q) = (%d, %t), ternary (%d, %t)", backend, q, gv, gok, wv, wok)
					}
				}
			}
		})
	}
}

func TestSpanSlice(t *testing.T) {
	buf := []byte("GET /index.html HTTP/1.1")
	line := Span{Buf: buf, Off: 4, Len: len(buf) - 4}
	version := line.Slice(12, 8)
	if version.Off != 16 || version.String() != "HTTP/1.1" {
		t.Fatalf("Slice = %+v (%q)", version, version.String())
	}
	idx := buildWith(t, BackendAuto, true, []string{"HTTP/1.0", "HTTP/1.1"})
	if v, ok := idx.GetSpan(version); !ok || v != 1 {
		t.Errorf("GetSpan = (%d, %t)", v, ok)
	}
	if v, ok := idx.GetBestSpan(line.Slice(12, 6)); ok {
		t.Errorf("GetBestSpan(HTTP/1) = %d, want miss", v)
	}
	if n := len(version.Bytes()); cap(version.Bytes()) != n {
		t.Error("Bytes() must not expose the rest of the buffer")
	}
}

func TestCapacityExhaustion(t *testing.T) {
	contents := []string{"a", "b"}
	idx, err := NewBuilder[int](WithMaxCapacity(RequiredCapacity(contents, false))).
		With("a", 1).
		With("b", 2).
		BuildMutable()
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Put("c", 3); !errors.Is(err, tierrors.ErrCapacityExceeded) {
		t.Fatalf("Put(c) error = %v, want ErrCapacityExceeded", err)
	}
	for k, want := range map[string]int{"a": 1, "b": 2} {
		if v, ok := idx.Get(k); !ok || v != want {
			t.Errorf("Get(%q) = (%d, %t), want %d", k, v, ok, want)
		}
	}
	if _, ok := idx.Get("c"); ok {
		t.Error("Get(c) hit after failed put")
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}

func TestGrowthRetainsKeys(t *testing.T) {
	idx, err := NewBuilder[int](WithGrowBy(16)).With("seed", -1).BuildMutable()
	if err != nil {
		t.Fatal(err)
	}
	if st := idx.Stats(); !st.Growing || st.Backend != BackendTernary {
		t.Fatalf("Stats() = %+v, want growing ternary", st)
	}
	for i := range 2000 {
		if err := idx.Put(fmt.Sprintf("key-%d", i), i); err != nil {
			t.Fatalf("Put(key-%d): %v", i, err)
		}
	}
	for i := range 2000 {
		if v, ok := idx.Get(fmt.Sprintf("KEY-%d", i)); !ok || v != i {
			t.Fatalf("Get(KEY-%d) = (%d, %t)", i, v, ok)
		}
	}
	if v, ok := idx.Get("seed"); !ok || v != -1 {
		t.Errorf("Get(seed) = (%d, %t)", v, ok)
	}
	if st := idx.Stats(); st.Keys != 2001 || st.Capacity <= RequiredCapacity([]string{"seed"}, false) {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestClearEmpties(t *testing.T) {
	for _, backend := range allBackends {
		t.Run(backend.String(), func(t *testing.T) {
			idx, err := NewBuilder[int](WithBackend(backend), WithAlphabet("abc"), WithMaxCapacity(64)).
				With("ab", 1).
				With("abc", 2).
				BuildMutable()
			if backend == BackendTree {
				// The tree cannot honour a ceiling.
				if !errors.Is(err, tierrors.ErrInsufficientCapacity) {
					t.Fatalf("error = %v", err)
				}
				idx, err = NewBuilder[int](WithBackend(backend)).With("ab", 1).With("abc", 2).BuildMutable()
			}
			if err != nil {
				t.Fatal(err)
			}
			idx.Clear()
			if !idx.IsEmpty() || idx.Len() != 0 || len(idx.Keys()) != 0 {
				t.Fatalf("Clear left %d keys", idx.Len())
			}
			if _, ok := idx.GetBest("abcabc"); ok {
				t.Error("GetBest hit after Clear")
			}
			if err := idx.Put("ba", 3); err != nil {
				t.Fatalf("Put after Clear: %v", err)
			}
			if v, ok := idx.Get("ba"); !ok || v != 3 {
				t.Errorf("Get(ba) = (%d, %t)", v, ok)
			}
		})
	}
}

func TestRemoveClearsEntryOnly(t *testing.T) {
	idx, err := NewBuilder[int]().With("app", 1).With("apple", 2).BuildMutable()
	if err != nil {
		t.Fatal(err)
	}
	rows := idx.Stats().Rows
	if v, ok := idx.Remove("app"); !ok || v != 1 {
		t.Fatalf("Remove(app) = (%d, %t)", v, ok)
	}
	if _, ok := idx.GetBest("application"); ok {
		t.Error("GetBest matched removed key")
	}
	if v, ok := idx.GetBest("applesauce"); !ok || v != 2 {
		t.Errorf("GetBest(applesauce) = (%d, %t)", v, ok)
	}
	if idx.Stats().Rows != rows {
		t.Errorf("Rows changed by Remove: %d -> %d", rows, idx.Stats().Rows)
	}
}

func TestEmptyKey(t *testing.T) {
	for _, backend := range allBackends {
		t.Run(backend.String(), func(t *testing.T) {
			idx := buildWith(t, backend, false, []string{"", "ab"})
			if v, ok := idx.Get(""); !ok || v != 0 {
				t.Errorf("Get(\"\") = (%d, %t)", v, ok)
			}
			if v, ok := idx.GetBest("b"); !ok || v != 0 {
				t.Errorf("GetBest(b) = (%d, %t), want empty-key value", v, ok)
			}
			if v, ok := idx.GetBest("abz"); !ok || v != 1 {
				t.Errorf("GetBest(abz) = (%d, %t)", v, ok)
			}
		})
	}
}

func TestConcurrentReaders(t *testing.T) {
	rng := newTestRNG(t)
	keys := randomKeys(rng, 300, 10, "abcdefgh-")
	queries := append(randomKeys(rng, 500, 14, "abcdefgh-"), keys...)

	for _, backend := range allBackends {
		t.Run(backend.String(), func(t *testing.T) {
			t.Parallel()
			idx := buildWith(t, backend, false, keys)

			// Expected answers, computed before any concurrent access.
			type answer struct {
				get, best     int
				getOK, bestOK bool
			}
			want := make([]answer, len(queries))
			for i, q := range queries {
				want[i].get, want[i].getOK = idx.Get(q)
				want[i].best, want[i].bestOK = idx.GetBest(q)
			}

			var wg sync.WaitGroup
			errs := make(chan string, 8)
			for w := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for n := range len(queries) {
						i := (n + w*61) % len(queries)
						q := []byte(queries[i])
						v, ok := idx.GetBytes(q)
						bv, bok := idx.GetBestBytes(q)
						if v != want[i].get || ok != want[i].getOK || bv != want[i].best || bok != want[i].bestOK {
							errs <- fmt.Sprintf("reader %d: %q gave (%d,%t) best (%d,%t)", w, q, v, ok, bv, bok)
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			for msg := range errs {
				t.Error(msg)
			}
		})
	}
}

func TestSnapshotIsolated(t *testing.T) {
	for _, backend := range allBackends {
		t.Run(backend.String(), func(t *testing.T) {
			opts := []BuildOption{WithBackend(backend)}
			if backend == BackendArray {
				opts = append(opts, WithAlphabet("abcdefgh"), WithMaxCapacity(256))
			}
			idx, err := NewBuilder[int](opts...).With("ab", 1).With("abc", 2).BuildMutable()
			if err != nil {
				t.Fatal(err)
			}
			snap := idx.Snapshot()

			if err := idx.Put("abcd", 3); err != nil {
				t.Fatal(err)
			}
			if err := idx.Put("ab", 10); err != nil {
				t.Fatal(err)
			}
			idx.Remove("abc")

			if snap.Len() != 2 {
				t.Errorf("snapshot Len() = %d, want 2", snap.Len())
			}
			if v, ok := snap.GetBest("abcdef"); !ok || v != 2 {
				t.Errorf("snapshot GetBest(abcdef) = (%d, %t), want 2", v, ok)
			}
			if v, ok := snap.Get("ab"); !ok || v != 1 {
				t.Errorf("snapshot Get(ab) = (%d, %t), want 1", v, ok)
			}
			if st := snap.Stats(); st.Backend != backend || st.Growing {
				t.Errorf("snapshot Stats() = %+v", st)
			}

			idx.Clear()
			if snap.IsEmpty() {
				t.Error("Clear emptied the snapshot")
			}
			if v, ok := idx.GetBest("abcdef"); ok {
				t.Errorf("GetBest after Clear = %d", v)
			}
		})
	}
}

// TestSnapshotReadsDuringPuts reads a snapshot while the source index keeps
// growing. Run with -race.
func TestSnapshotReadsDuringPuts(t *testing.T) {
	for _, backend := range []BackendID{BackendTernary, BackendTree} {
		t.Run(backend.String(), func(t *testing.T) {
			idx, err := NewBuilder[int](WithBackend(backend), WithGrowBy(8)).
				With("base", 0).
				BuildMutable()
			if err != nil {
				t.Fatal(err)
			}
			snap := idx.Snapshot()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 500 {
					if err := idx.Put(fmt.Sprintf("base-%d", i), i); err != nil {
						t.Errorf("Put: %v", err)
						return
					}
				}
			}()
			for range 500 {
				if v, ok := snap.GetBest("base-123"); !ok || v != 0 {
					t.Fatalf("snapshot GetBest(base-123) = (%d, %t), want 0", v, ok)
				}
			}
			wg.Wait()
			if idx.Len() != 501 || snap.Len() != 1 {
				t.Errorf("Len() = %d, snapshot %d", idx.Len(), snap.Len())
			}
		})
	}
}

func BenchmarkGetBytes(b *testing.B) {
	rng := newTestRNG(b)
	keys := randomKeys(rng, 200, 20, "abcdefghijklmnopqrstuvwxyz-")
	raw := make([][]byte, len(keys))
	for i, k := range keys {
		raw[i] = []byte(toggleCase(k))
	}
	for _, backend := range allBackends {
		idx := buildWith(b, backend, false, keys)
		b.Run(backend.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; b.Loop(); i++ {
				idx.GetBytes(raw[i%len(raw)])
			}
		})
	}
}

func BenchmarkGetBestBytes(b *testing.B) {
	rng := newTestRNG(b)
	keys := randomKeys(rng, 200, 8, "abcdefgh")
	queries := randomKeys(rng, 256, 24, "abcdefgh")
	raw := make([][]byte, len(queries))
	for i, q := range queries {
		raw[i] = []byte(q)
	}
	for _, backend := range allBackends {
		idx := buildWith(b, backend, false, keys)
		b.Run(backend.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; b.Loop(); i++ {
				idx.GetBestBytes(raw[i%len(raw)])
			}
		})
	}
}
