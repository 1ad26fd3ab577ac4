// Package span provides Span, an immutable view of a contiguous run of UTF-8 text.
//
// A Span either borrows a window of a caller's buffer or owns a private copy.
// Decoding to a string happens on first use and is cached, so repeated calls
// to String return the same value without allocating again.
package span

import (
	"bytes"
	"sync"
)

// Span is a byte range of text. The zero value is the empty span.
type Span struct {
	buf    []byte
	offset int
	owned  bool
	cache  *decoded
}

type decoded struct {
	once sync.Once
	s    string
}

// Borrowed returns a span viewing buf[off:off+n]. The caller must not modify
// that window while the span is in use.
func Borrowed(buf []byte, off, n int) Span {
	if n <= 0 || off < 0 || off+n > len(buf) {
		return Span{}
	}
	return Span{buf: buf[off : off+n : off+n], offset: off, cache: &decoded{}}
}

// BorrowedString returns a span of s[off:off+n]. Its String shares memory with s.
func BorrowedString(s string, off, n int) Span {
	if n <= 0 || off < 0 || off+n > len(s) {
		return Span{}
	}
	sp := Span{buf: []byte(s[off : off+n]), offset: off, cache: &decoded{}}
	sp.cache.once.Do(func() { sp.cache.s = s[off : off+n] })
	return sp
}

// Owned returns a span holding its own copy of b.
func Owned(b []byte) Span {
	if len(b) == 0 {
		return Span{}
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return Span{buf: cp, owned: true, cache: &decoded{}}
}

// FromString returns an owned span with the contents of s.
func FromString(s string) Span {
	if s == "" {
		return Span{}
	}
	sp := Span{buf: []byte(s), owned: true, cache: &decoded{}}
	sp.cache.once.Do(func() { sp.cache.s = s })
	return sp
}

// WithOffset returns a copy of s reporting off as its source offset.
func (s Span) WithOffset(off int) Span {
	s.offset = off
	return s
}

// Len returns the length in bytes.
func (s Span) Len() int { return len(s.buf) }

// IsEmpty reports whether the span has no bytes.
func (s Span) IsEmpty() bool { return len(s.buf) == 0 }

// Owned reports whether the span holds its own copy of the bytes.
func (s Span) Owned() bool { return s.owned }

// Offset is the byte offset of the span within its source text.
func (s Span) Offset() int { return s.offset }

// Bytes returns the raw bytes. The slice must not be modified.
func (s Span) Bytes() []byte { return s.buf }

// String decodes the span. The result is computed once and cached.
func (s Span) String() string {
	if len(s.buf) == 0 {
		return ""
	}
	if s.cache == nil {
		return string(s.buf)
	}
	s.cache.once.Do(func() { s.cache.s = string(s.buf) })
	return s.cache.s
}

// Compare orders spans byte-wise.
func (s Span) Compare(other Span) int { return bytes.Compare(s.buf, other.buf) }

// Equal reports byte-wise equality.
func (s Span) Equal(other Span) bool { return bytes.Equal(s.buf, other.buf) }

// EqualString reports whether the span holds exactly str.
func (s Span) EqualString(str string) bool {
	return len(s.buf) == len(str) && string(s.buf) == str
}
