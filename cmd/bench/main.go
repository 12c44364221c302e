// Bench measures build time, lookup latency and memory of each tokenindex
// backend against hash-map baselines.
//
// Usage:
//
//	go run ./cmd/bench -keys 2000 -maxlen 16 -queries 1000000
//
// Flags:
//
//	-keys      Number of keys to index (default: 2,000)
//	-maxlen    Maximum key length (default: 16)
//	-alphabet  Bytes keys are drawn from (default: a-z, 0-9 and '-')
//	-queries   Number of timed lookups per backend (default: 1,000,000)
//	-case      Case-sensitive indexes (default: false)
package main

import (
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	"github.com/tamirms/tokenindex"
)

// getMaxRSS returns the maximum resident set size in bytes.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// result is one row of the output table.
type result struct {
	name   string
	build  time.Duration
	get    time.Duration // per exact lookup
	best   time.Duration // per best-match lookup, zero for hash maps
	heap   uint64
	detail string
}

func heapAlloc() uint64 {
	runtime.GC()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

func main() {
	keysFlag := flag.Int("keys", 2_000, "number of keys")
	maxLenFlag := flag.Int("maxlen", 16, "maximum key length")
	alphabetFlag := flag.String("alphabet", "abcdefghijklmnopqrstuvwxyz0123456789-", "key alphabet")
	queriesFlag := flag.Int("queries", 1_000_000, "timed lookups per backend")
	caseFlag := flag.Bool("case", false, "case-sensitive indexes")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (query phase only)")
	flag.Parse()

	if *keysFlag <= 0 || *maxLenFlag <= 0 || *alphabetFlag == "" {
		fmt.Println("keys, maxlen and alphabet must be non-empty")
		return
	}

	fmt.Println("Generating keys...")
	rng := mrand.New(mrand.NewPCG(0x1234, 0x5678))
	keys := make([]string, *keysFlag)
	var sb strings.Builder
	for i := range keys {
		sb.Reset()
		for range 1 + rng.IntN(*maxLenFlag) {
			sb.WriteByte((*alphabetFlag)[rng.IntN(len(*alphabetFlag))])
		}
		keys[i] = sb.String()
	}
	// Half the queries hit exactly; the rest carry a suffix for best match.
	queries := make([][]byte, 4096)
	for i := range queries {
		q := keys[rng.IntN(len(keys))]
		if i%2 == 1 {
			q += "/suffix"
		}
		queries[i] = []byte(q)
	}
	fmt.Printf("Required capacity: %d rows (max %d)\n", tokenindex.RequiredCapacity(keys, *caseFlag), tokenindex.MaxCapacity)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
		defer pprof.StopCPUProfile()
	}

	baselineRSS := getMaxRSS()
	var results []result
	for _, backend := range []tokenindex.BackendID{tokenindex.BackendTernary, tokenindex.BackendArray, tokenindex.BackendTree} {
		results = append(results, benchIndex(backend, keys, queries, *queriesFlag, *caseFlag))
	}
	results = append(results,
		benchMap("map[string]", keys, queries, *queriesFlag, func(b []byte) string { return string(b) }),
		benchMap("map[murmur3]", keys, queries, *queriesFlag, murmur3.Sum64),
		benchMap("map[xxh3]", keys, queries, *queriesFlag, xxh3.Hash),
		benchMap("map[xxhash]", keys, queries, *queriesFlag, xxhash.Sum64),
	)

	fmt.Printf("\n")
	fmt.Printf("╔════════════════╦════════════╦════════════╦════════════╦════════════╦══════════════════╗\n")
	fmt.Printf("║ Structure      ║ Build      ║ Get        ║ GetBest    ║ Heap       ║ Notes            ║\n")
	fmt.Printf("╠════════════════╬════════════╬════════════╬════════════╬════════════╬══════════════════╣\n")
	for _, r := range results {
		best := "    -     "
		if r.best > 0 {
			best = fmt.Sprintf("%7.1f ns", float64(r.best.Nanoseconds()))
		}
		if r.detail != "" && r.build == 0 {
			fmt.Printf("║ %-14s ║ %-10s ║ %-10s ║ %-10s ║ %-10s ║ %-16.16s ║\n", r.name, "-", "-", "-", "-", r.detail)
			continue
		}
		fmt.Printf("║ %-14s ║ %7.2f ms ║ %7.1f ns ║ %10s ║ %7.1f KB ║ %-16.16s ║\n",
			r.name, float64(r.build.Microseconds())/1000, float64(r.get.Nanoseconds()), best,
			float64(r.heap)/1000, r.detail)
	}
	fmt.Printf("╚════════════════╩════════════╩════════════╩════════════╩════════════╩══════════════════╝\n")
	fmt.Printf("Peak RSS growth: %.1f MB\n", float64(getMaxRSS()-baselineRSS)/1_000_000)
}

func benchIndex(backend tokenindex.BackendID, keys []string, queries [][]byte, n int, cs bool) result {
	r := result{name: backend.String()}
	before := heapAlloc()

	b := tokenindex.NewBuilder[int](tokenindex.WithBackend(backend), tokenindex.CaseSensitive(cs))
	for i, k := range keys {
		b.With(k, i)
	}
	start := time.Now()
	idx, err := b.Build()
	if err != nil {
		r.detail = err.Error()
		return r
	}
	r.build = time.Since(start)
	if after := heapAlloc(); after > before {
		r.heap = after - before
	}
	r.detail = fmt.Sprintf("%d rows", idx.Stats().Rows)

	// Warm up before timing.
	for i := range 10_000 {
		_, _ = idx.GetBytes(queries[i%len(queries)])
	}

	start = time.Now()
	for i := range n {
		_, _ = idx.GetBytes(queries[i%len(queries)])
	}
	r.get = time.Since(start) / time.Duration(n)

	start = time.Now()
	for i := range n {
		_, _ = idx.GetBestBytes(queries[i%len(queries)])
	}
	r.best = time.Since(start) / time.Duration(n)
	runtime.KeepAlive(idx)
	return r
}

func benchMap[K comparable](name string, keys []string, queries [][]byte, n int, keyOf func([]byte) K) result {
	r := result{name: name}
	before := heapAlloc()

	start := time.Now()
	m := make(map[K]int, len(keys))
	for i, k := range keys {
		m[keyOf([]byte(k))] = i
	}
	r.build = time.Since(start)
	if after := heapAlloc(); after > before {
		r.heap = after - before
	}
	r.detail = "exact only"

	for i := range 10_000 {
		_ = m[keyOf(queries[i%len(queries)])]
	}

	start = time.Now()
	for i := range n {
		_ = m[keyOf(queries[i%len(queries)])]
	}
	r.get = time.Since(start) / time.Duration(n)
	runtime.KeepAlive(m)
	return r
}
