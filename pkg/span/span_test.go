package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroSpan(t *testing.T) {
	var s Span
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "", s.String())
	assert.True(t, s.EqualString(""))
	assert.False(t, s.EqualString("a"))
	assert.True(t, s.Equal(FromString("")))
}

func TestBorrowed(t *testing.T) {
	buf := []byte("hello world")
	s := Borrowed(buf, 6, 5)
	assert.Equal(t, "world", s.String())
	assert.Equal(t, 6, s.Offset())
	assert.False(t, s.Owned())

	// out of bounds windows collapse to empty
	assert.True(t, Borrowed(buf, 8, 10).IsEmpty())
	assert.True(t, Borrowed(buf, -1, 2).IsEmpty())
}

func TestOwnedCopies(t *testing.T) {
	buf := []byte("abc")
	s := Owned(buf)
	buf[0] = 'x'
	assert.Equal(t, "abc", s.String())
	assert.True(t, s.Owned())
}

func TestStringIsCached(t *testing.T) {
	s := Borrowed([]byte("cached"), 0, 6)
	first := s.String()
	second := s.String()
	assert.Equal(t, first, second)
	assert.Equal(t, "cached", second)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"same", "same", 0},
		{"", "a", -1},
		{"ä", "z", 1}, // byte order, not collation
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, FromString(tt.a).Compare(FromString(tt.b)))
		})
	}
}

func TestBorrowedString(t *testing.T) {
	src := "one two"
	s := BorrowedString(src, 4, 3)
	assert.Equal(t, "two", s.String())
	assert.Equal(t, 4, s.Offset())
	assert.Equal(t, 9, s.WithOffset(9).Offset())
}
