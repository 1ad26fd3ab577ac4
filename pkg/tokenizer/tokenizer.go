/*
Package tokenizer finds the word under an editing cursor and its neighbours.

Given the text before and after the cursor, Segment reassembles the word the
cursor sits in (or touches) and collects up to two words on either side:

	wc := tokenizer.Segment("hello wo", "rld goodbye")
	wc.Current.String()    // "world"
	wc.FirstBefore.String() // "hello"
	wc.FirstAfter.String()  // "goodbye"

Word characters are decided by a Classifier. The default one is Unicode
category based (letters, marks, numbers, connector punctuation) and carries no
language specific tables; use WithClassifier or WithExtraWordRunes when a
lexicon treats other characters as part of words.

Segmentation is pure: no shared state, safe for concurrent use.
*/
package tokenizer

import (
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/wordspell/pkg/span"
)

// Classifier reports whether r is a word character.
type Classifier func(r rune) bool

// DefaultClassifier accepts letters, combining marks, numbers and connector punctuation.
func DefaultClassifier(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r) || unicode.Is(unicode.Pc, r)
}

// LettersOnly accepts letters and the combining marks attached to them.
func LettersOnly(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r)
}

// WordContext is the segmentation around a cursor. Any span may be empty.
type WordContext struct {
	// Current is prefix+suffix of the word spanning the cursor. Its offset is
	// relative to before+after.
	Current span.Span
	// FirstBefore and SecondBefore borrow from the before text.
	FirstBefore  span.Span
	SecondBefore span.Span
	// FirstAfter and SecondAfter borrow from the after text.
	FirstAfter  span.Span
	SecondAfter span.Span
}

// IndexedWord is a word with its byte offset in the scanned text.
type IndexedWord struct {
	Index int
	Word  string
}

// Tokenizer segments text with a fixed word-character policy.
type Tokenizer struct {
	isWord Classifier
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithClassifier replaces the word-character policy.
func WithClassifier(c Classifier) Option {
	return func(t *Tokenizer) {
		if c != nil {
			t.isWord = c
		}
	}
}

// WithExtraWordRunes treats the given runes as word characters on top of the current policy.
func WithExtraWordRunes(runes ...rune) Option {
	return func(t *Tokenizer) {
		base := t.isWord
		extra := make(map[rune]struct{}, len(runes))
		for _, r := range runes {
			extra[r] = struct{}{}
		}
		t.isWord = func(r rune) bool {
			if _, ok := extra[r]; ok {
				return true
			}
			return base(r)
		}
	}
}

// New builds a Tokenizer. Options apply in order.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{isWord: DefaultClassifier}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var defaultTokenizer = New()

// Segment runs the default tokenizer.
func Segment(before, after string) WordContext {
	return defaultTokenizer.Segment(before, after)
}

// Words returns the word runs of s using the default tokenizer.
func Words(s string) []IndexedWord {
	return defaultTokenizer.Words(s)
}

// IsWordRune reports whether r is a word character under this tokenizer's policy.
func (t *Tokenizer) IsWordRune(r rune) bool {
	return t.isWord(r)
}

// Segment splits the text around a cursor placed between before and after.
// Empty strings are valid and mean there is no text on that side.
func (t *Tokenizer) Segment(before, after string) WordContext {
	var wc WordContext

	prefixStart := t.scanBack(before, len(before))
	suffixEnd := t.scanForward(after, 0)

	if prefixStart < len(before) || suffixEnd > 0 {
		wc.Current = span.FromString(before[prefixStart:] + after[:suffixEnd]).WithOffset(prefixStart)
	}

	var pos int
	wc.FirstBefore, pos = t.previousWord(before, prefixStart)
	if !wc.FirstBefore.IsEmpty() {
		wc.SecondBefore, _ = t.previousWord(before, pos)
	}

	wc.FirstAfter, pos = t.nextWord(after, suffixEnd)
	if !wc.FirstAfter.IsEmpty() {
		wc.SecondAfter, _ = t.nextWord(after, pos)
	}

	return wc
}

// Words returns every word-character run of s with its byte offset.
func (t *Tokenizer) Words(s string) []IndexedWord {
	var words []IndexedWord
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !t.isWord(r) {
			i += size
			continue
		}
		end := t.scanForward(s, i)
		words = append(words, IndexedWord{Index: i, Word: s[i:end]})
		i = end
	}
	return words
}

// scanBack returns the start of the word-character run ending at end.
func (t *Tokenizer) scanBack(s string, end int) int {
	i := end
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if !t.isWord(r) {
			break
		}
		i -= size
	}
	return i
}

// scanForward returns the end of the word-character run starting at start.
func (t *Tokenizer) scanForward(s string, start int) int {
	i := start
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !t.isWord(r) {
			break
		}
		i += size
	}
	return i
}

// previousWord skips the boundary run ending at end and returns the word before it.
func (t *Tokenizer) previousWord(s string, end int) (span.Span, int) {
	i := end
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if t.isWord(r) {
			break
		}
		i -= size
	}
	if i == 0 {
		return span.Span{}, 0
	}
	start := t.scanBack(s, i)
	return span.BorrowedString(s, start, i-start), start
}

// nextWord skips the boundary run starting at start and returns the word after it.
func (t *Tokenizer) nextWord(s string, start int) (span.Span, int) {
	i := start
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if t.isWord(r) {
			break
		}
		i += size
	}
	if i == len(s) {
		return span.Span{}, i
	}
	end := t.scanForward(s, i)
	return span.BorrowedString(s, i, end-i), end
}
