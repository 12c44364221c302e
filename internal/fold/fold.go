// Package fold provides the ASCII case folding shared by every backend.
//
// Only the 26 upper-case ASCII letters are folded. Bytes at or above 0x80 are
// compared raw, so UTF-8 and ISO-8859-1 keys never alias each other.
package fold

import "unsafe"

// Key is the set of key representations a backend walks byte by byte.
// Instantiating one walk for both keeps string and []byte lookups identical.
type Key interface {
	~string | ~[]byte
}

// lower maps every byte to its folded form.
var lower = func() (t [256]byte) {
	for i := range t {
		t[i] = byte(i)
	}
	for c := 'A'; c <= 'Z'; c++ {
		t[c] = byte(c) + 'a' - 'A'
	}
	return t
}()

// Byte returns c folded to lower case when insensitive is set.
func Byte(c byte, insensitive bool) byte {
	if insensitive {
		return lower[c]
	}
	return c
}

// String returns s with ASCII upper-case letters lowered when insensitive is
// set. It returns s itself when nothing changes.
func String(s string, insensitive bool) string {
	if !insensitive {
		return s
	}
	i := 0
	for i < len(s) && lower[s[i]] == s[i] {
		i++
	}
	if i == len(s) {
		return s
	}
	b := []byte(s)
	for ; i < len(b); i++ {
		b[i] = lower[b[i]]
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Compare compares a and b byte-wise after folding, returning -1, 0 or +1.
func Compare(a, b string, insensitive bool) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := Byte(a[i], insensitive), Byte(b[i], insensitive)
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// UnsafeString views b as a string without copying. The caller must not
// modify b while the string is in use.
func UnsafeString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
