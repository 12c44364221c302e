// Package vocab loads token vocabularies from plain-text files.
//
// # Format
//
// One entry per line, either "key" or "key<TAB>value". When the value is
// omitted it equals the key. Blank lines and lines starting with '#' are
// skipped. A file may end with a checksum trailer:
//
//	#xxh64:<16 lower-case hex digits>
//
// holding the xxHash64 of every byte before the trailer line. Format and
// Write produce files with the trailer.
package vocab

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/tamirms/tokenindex"
	tierrors "github.com/tamirms/tokenindex/errors"
)

const trailerPrefix = "#xxh64:"

// Entry is one vocabulary line.
type Entry struct {
	Key   string
	Value string
}

// Vocabulary is a parsed vocabulary file.
type Vocabulary struct {
	Entries []Entry

	// Checksum is the verified trailer value; zero when HasChecksum is false.
	Checksum    uint64
	HasChecksum bool
}

// Option configures parsing.
type Option func(*parseConfig)

type parseConfig struct {
	latin1          bool
	requireChecksum bool
}

// Latin1 transcodes keys and values from UTF-8 to ISO-8859-1, so they match
// request bytes in that encoding. Characters outside ISO-8859-1 are an
// ErrMalformedLine.
func Latin1() Option {
	return func(c *parseConfig) {
		c.latin1 = true
	}
}

// RequireChecksum rejects files without a checksum trailer.
func RequireChecksum() Option {
	return func(c *parseConfig) {
		c.requireChecksum = true
	}
}

// Load reads the vocabulary file at path.
func Load(path string, opts ...Option) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()
	return LoadFile(f, opts...)
}

// LoadFile memory-maps f and parses it. The mapping is released before
// LoadFile returns; the caller still owns f.
func LoadFile(f *os.File, opts ...Option) (v *Vocabulary, err error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat vocabulary: %w", err)
	}
	if stat.Size() == 0 {
		// mmap rejects empty mappings.
		return Parse(nil, opts...)
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap vocabulary: %w", err)
	}
	defer func() {
		if uerr := mm.Unmap(); uerr != nil {
			err = errors.Join(err, fmt.Errorf("unmap vocabulary: %w", uerr))
		}
	}()
	adviseSequential(mm)
	return Parse(mm, opts...)
}

// Parse parses vocabulary bytes. The result does not reference data.
func Parse(data []byte, opts ...Option) (*Vocabulary, error) {
	cfg := &parseConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	v := &Vocabulary{}
	body, sum, ok, err := splitTrailer(data)
	if err != nil {
		return nil, err
	}
	if ok {
		if got := xxhash.Sum64(body); got != sum {
			return nil, fmt.Errorf("%w: computed %016x, trailer %016x", tierrors.ErrChecksumFailed, got, sum)
		}
		v.Checksum, v.HasChecksum = sum, true
	} else if cfg.requireChecksum {
		return nil, tierrors.ErrMissingChecksum
	}

	var enc *encoding.Encoder
	if cfg.latin1 {
		enc = charmap.ISO8859_1.NewEncoder()
	}

	for lineNo := 1; len(body) > 0; lineNo++ {
		var line []byte
		if i := bytes.IndexByte(body, '\n'); i >= 0 {
			line, body = body[:i], body[i+1:]
		} else {
			line, body = body, nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		key, value := line, line
		if i := bytes.IndexByte(line, '\t'); i >= 0 {
			key, value = line[:i], line[i+1:]
			if bytes.IndexByte(value, '\t') >= 0 {
				return nil, fmt.Errorf("%w: line %d has more than one tab", tierrors.ErrMalformedLine, lineNo)
			}
		}

		e := Entry{Key: string(key), Value: string(value)}
		if enc != nil {
			if e.Key, err = transcode(enc, e.Key); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", tierrors.ErrMalformedLine, lineNo, err)
			}
			if e.Value, err = transcode(enc, e.Value); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", tierrors.ErrMalformedLine, lineNo, err)
			}
		}
		v.Entries = append(v.Entries, e)
	}
	return v, nil
}

// splitTrailer separates a final checksum line from the body it covers.
func splitTrailer(data []byte) (body []byte, sum uint64, ok bool, err error) {
	end := len(data)
	if end > 0 && data[end-1] == '\n' {
		end--
	}
	start := bytes.LastIndexByte(data[:end], '\n') + 1
	last := bytes.TrimSuffix(data[start:end], []byte{'\r'})
	if !bytes.HasPrefix(last, []byte(trailerPrefix)) {
		return data, 0, false, nil
	}

	digits := last[len(trailerPrefix):]
	var raw [8]byte
	if len(digits) != 2*len(raw) {
		return nil, 0, false, fmt.Errorf("%w: checksum trailer %q", tierrors.ErrMalformedLine, last)
	}
	if _, err := hex.Decode(raw[:], digits); err != nil {
		return nil, 0, false, fmt.Errorf("%w: checksum trailer: %w", tierrors.ErrMalformedLine, err)
	}
	return data[:start], binary.BigEndian.Uint64(raw[:]), true, nil
}

// transcode runs s through enc unless it is plain ASCII, which every
// supported charset maps to itself.
func transcode(enc *encoding.Encoder, s string) (string, error) {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return enc.String(s)
		}
	}
	return s, nil
}

// Format renders entries in vocabulary format followed by a checksum
// trailer. Entries whose value equals the key are written as a bare key.
// Keys must not contain tabs or newlines, nor start with '#'.
func Format(entries []Entry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Key)
		if e.Value != e.Key {
			buf.WriteByte('\t')
			buf.WriteString(e.Value)
		}
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "%s%016x\n", trailerPrefix, xxhash.Sum64(buf.Bytes()))
	return buf.Bytes()
}

// Write writes Format(entries) to w.
func Write(w io.Writer, entries []Entry) error {
	_, err := w.Write(Format(entries))
	return err
}

// Keys returns the entry keys in file order.
func (v *Vocabulary) Keys() []string {
	keys := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Builder returns an index builder preloaded with every entry. A key that
// appears twice keeps its last value.
func (v *Vocabulary) Builder(opts ...tokenindex.BuildOption) *tokenindex.Builder[string] {
	b := tokenindex.NewBuilder[string](opts...)
	for _, e := range v.Entries {
		b.With(e.Key, e.Value)
	}
	return b
}
