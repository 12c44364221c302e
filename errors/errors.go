// Package errors defines all exported error sentinels for the tokenindex library.
//
// This is the single source of truth for error values. Both the top-level
// tokenindex package and the internal backends import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Usage errors
var (
	ErrNilValue         = errors.New("tokenindex: value cannot be nil")
	ErrCapacityOverflow = errors.New("tokenindex: capacity exceeds maximum row index (65535)")
	ErrAlphabetRequired = errors.New("tokenindex: mutable array index requires an explicit alphabet")
	ErrAlphabetMismatch = errors.New("tokenindex: key byte is outside the index alphabet")
	ErrAlphabetTooLarge = errors.New("tokenindex: alphabet is not a small 7-bit ASCII set")
	ErrUnknownBackend   = errors.New("tokenindex: unknown backend")
)

// Capacity errors.
//
// ErrCapacityExceeded is an ordinary Put outcome on a fixed-capacity backend:
// the index is unchanged and the caller decides whether to grow or reject.
var (
	ErrCapacityExceeded     = errors.New("tokenindex: index capacity exceeded")
	ErrInsufficientCapacity = errors.New("tokenindex: max capacity is insufficient for contents")
)

// Vocabulary file errors
var (
	ErrChecksumFailed  = errors.New("tokenindex: vocabulary checksum verification failed")
	ErrMissingChecksum = errors.New("tokenindex: vocabulary has no checksum trailer")
	ErrMalformedLine   = errors.New("tokenindex: malformed vocabulary line")
)
