// Tokenindex builds a token index from a vocabulary file and answers
// lookups against it.
//
// Usage:
//
//	tokenindex -f headers.txt best "Content-Type: text/html"
//	printf 'GET /\nPOST /\n' | tokenindex -f methods.txt --case-sensitive best
//	tokenindex -f headers.txt --mutable add X-Request-Id=x-request-id
//
// Commands:
//
//	get     exact lookup of each query
//	best    longest stored prefix of each query
//	keys    print every key
//	stats   print backend statistics
//	digest  print the content digest
//	add     put key[=value] pairs into a mutable index, then print stats
//
// Queries come from the remaining arguments, or from stdin one per line
// when there are none. Every flag can also be set in a config file or
// through TOKENINDEX_* environment variables.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/tamirms/tokenindex"
	tierrors "github.com/tamirms/tokenindex/errors"
	"github.com/tamirms/tokenindex/internal/config"
	"github.com/tamirms/tokenindex/vocab"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "tokenindex: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("tokenindex", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("missing command (get, best, keys, stats, digest, add)")
	}
	cmd, queries := fs.Arg(0), fs.Args()[1:]

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	lvl, _ := cfg.LogLevel()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger().Level(lvl)

	voc, err := vocab.Load(cfg.Vocab.Path, cfg.VocabOptions()...)
	if err != nil {
		return err
	}
	logger.Info().
		Str("path", cfg.Vocab.Path).
		Int("entries", len(voc.Entries)).
		Bool("checksum", voc.HasChecksum).
		Msg("vocabulary loaded")

	b := voc.Builder(cfg.BuildOptions(logger)...)
	var (
		idx tokenindex.Index[string]
		mut tokenindex.Mutable[string]
	)
	if cfg.Index.Mutable {
		mut, err = b.BuildMutable()
		idx = mut
	} else {
		idx, err = b.Build()
	}
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	out := bufio.NewWriter(stdout)
	defer out.Flush()

	switch cmd {
	case "get":
		return eachQuery(queries, stdin, func(q string) {
			printResult(out, q, idx.Get)
		})
	case "best":
		return eachQuery(queries, stdin, func(q string) {
			printResult(out, q, idx.GetBest)
		})
	case "keys":
		keys := idx.Keys()
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
	case "stats":
		printStats(out, idx.Stats())
	case "digest":
		d := tokenindex.Digest(idx)
		fmt.Fprintln(out, hex.EncodeToString(d[:]))
	case "add":
		if mut == nil {
			return errors.New("add requires --mutable")
		}
		err := eachQuery(queries, stdin, func(q string) {
			key, value, ok := strings.Cut(q, "=")
			if !ok {
				value = key
			}
			switch err := mut.Put(key, value); {
			case errors.Is(err, tierrors.ErrCapacityExceeded):
				logger.Warn().Str("key", key).Msg("index full, key rejected")
			case err != nil:
				logger.Error().Err(err).Str("key", key).Msg("put failed")
			}
		})
		if err != nil {
			return err
		}
		printStats(out, idx.Stats())
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// eachQuery calls fn for every argument, or for every stdin line when there
// are no arguments.
func eachQuery(args []string, stdin io.Reader, fn func(string)) error {
	if len(args) > 0 {
		for _, q := range args {
			fn(q)
		}
		return nil
	}
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		fn(strings.TrimSuffix(sc.Text(), "\r"))
	}
	return sc.Err()
}

func printResult(w io.Writer, q string, lookup func(string) (string, bool)) {
	if v, ok := lookup(q); ok {
		fmt.Fprintf(w, "%s\t%s\n", q, v)
		return
	}
	fmt.Fprintf(w, "%s\t-\n", q)
}

func printStats(w io.Writer, st *tokenindex.Stats) {
	fmt.Fprintf(w, "backend:        %s\n", st.Backend)
	fmt.Fprintf(w, "keys:           %d\n", st.Keys)
	fmt.Fprintf(w, "rows:           %d\n", st.Rows)
	fmt.Fprintf(w, "capacity:       %d\n", st.Capacity)
	fmt.Fprintf(w, "case sensitive: %t\n", st.CaseSensitive)
	fmt.Fprintf(w, "growing:        %t\n", st.Growing)
}
