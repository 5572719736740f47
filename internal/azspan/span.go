// Package azspan provides the non-owning byte-range view primitive that
// every other package in this module builds on: a Span is just a []byte,
// but callers are expected to treat it as borrowed from its backing buffer
// rather than an owned copy. All parser and codec outputs in this module
// are sub-slices of caller-supplied buffers.
package azspan

import "bytes"

// Span is a non-owning view over a contiguous byte range. An empty Span
// (len == 0, including nil) is well defined and distinct from "absent".
type Span = []byte

// Equal reports whether a and b refer to byte-identical content.
func Equal(a, b Span) bool {
	return bytes.Equal(a, b)
}

// HasPrefix reports whether s begins with prefix.
func HasPrefix(s, prefix Span) bool {
	return bytes.HasPrefix(s, prefix)
}

// IndexByte returns the index of the first occurrence of c in s, or -1.
func IndexByte(s Span, c byte) int {
	return bytes.IndexByte(s, c)
}

// Builder is a cursor over a caller-supplied destination buffer. It never
// grows the buffer and never writes past its end; a write that would
// overflow leaves the builder's already-written prefix untouched.
type Builder struct {
	dst []byte
	n   int
}

// NewBuilder wraps dst for incremental writing.
func NewBuilder(dst []byte) *Builder {
	return &Builder{dst: dst}
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return b.n }

// Cap returns the destination buffer's capacity.
func (b *Builder) Cap() int { return len(b.dst) }

// Remaining returns how many bytes are still free in the destination.
func (b *Builder) Remaining() int { return len(b.dst) - b.n }

// Written returns the prefix of the destination buffer written so far.
func (b *Builder) Written() Span { return b.dst[:b.n] }

// TryWrite appends p to the builder. It reports false, leaving the builder
// unchanged, if p does not fit in the remaining destination space.
func (b *Builder) TryWrite(p []byte) bool {
	if len(p) > b.Remaining() {
		return false
	}
	copy(b.dst[b.n:], p)
	b.n += len(p)
	return true
}

// TryWriteByte appends a single byte. It reports false, leaving the
// builder unchanged, if there is no remaining space.
func (b *Builder) TryWriteByte(c byte) bool {
	if b.Remaining() < 1 {
		return false
	}
	b.dst[b.n] = c
	b.n++
	return true
}

// Reset truncates the builder back to an earlier length, e.g. to undo a
// partially written token that turned out to be invalid.
func (b *Builder) Reset(n int) {
	b.n = n
}
