package speller

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/bastiangx/wordspell/pkg/span"
)

// Completion tells whether a suggestion completes an unfinished word.
type Completion uint8

const (
	// CompletionUnknown means completion was not evaluated for the search.
	CompletionUnknown Completion = iota
	// CompletionFalse marks a whole word reached by correction.
	CompletionFalse
	// CompletionTrue marks a word reached through the completion marker.
	CompletionTrue
)

func (c Completion) String() string {
	switch c {
	case CompletionFalse:
		return "false"
	case CompletionTrue:
		return "true"
	}
	return "unknown"
}

// Suggestion is one ranked candidate. Lower weight is better.
type Suggestion struct {
	Value     string
	Weight    float64
	Completed Completion
}

type entry struct {
	value     span.Span
	weight    float64
	completed Completion
}

// SuggestionList is the ranked result of one search, ordered by ascending
// weight, then byte order of the value.
//
// Values are copied into a buffer owned by the list, so it stays valid after
// the speller or archive that produced it is closed. Each value is decoded on
// first access and cached.
type SuggestionList struct {
	mu      sync.RWMutex
	buf     []byte
	entries []entry
	size    int
	closed  bool
}

// rank sorts candidates by weight then value and keeps the first n.
func rank(cands []Suggestion, n int) []Suggestion {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Weight != cands[j].Weight {
			return cands[i].Weight < cands[j].Weight
		}
		return cands[i].Value < cands[j].Value
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	return cands
}

func newSuggestionList(ranked []Suggestion) *SuggestionList {
	var total int
	for _, s := range ranked {
		total += len(s.Value)
	}

	var buf bytes.Buffer
	buf.Grow(total)
	for _, s := range ranked {
		buf.WriteString(s.Value)
	}

	l := &SuggestionList{buf: buf.Bytes(), size: len(ranked)}
	l.entries = make([]entry, len(ranked))
	off := 0
	for i, s := range ranked {
		l.entries[i] = entry{
			value:     span.Borrowed(l.buf, off, len(s.Value)),
			weight:    s.Weight,
			completed: s.Completed,
		}
		off += len(s.Value)
	}
	return l
}

// Len returns the number of suggestions, fixed at creation.
func (l *SuggestionList) Len() int { return l.size }

// Get returns suggestion i.
func (l *SuggestionList) Get(i int) (Suggestion, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return Suggestion{}, fmt.Errorf("suggestion list: %w", errs.ErrEngineClosed)
	}
	if i < 0 || i >= l.size {
		return Suggestion{}, fmt.Errorf("%w: %d not in [0, %d)", errs.ErrIndexOutOfRange, i, l.size)
	}
	e := &l.entries[i]
	return Suggestion{Value: e.value.String(), Weight: e.weight, Completed: e.completed}, nil
}

// All returns every suggestion in rank order.
func (l *SuggestionList) All() ([]Suggestion, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, fmt.Errorf("suggestion list: %w", errs.ErrEngineClosed)
	}
	out := make([]Suggestion, l.size)
	for i := range l.entries {
		e := &l.entries[i]
		out[i] = Suggestion{Value: e.value.String(), Weight: e.weight, Completed: e.completed}
	}
	return out, nil
}

// Close releases the buffers. Closing twice is a no-op.
func (l *SuggestionList) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.buf, l.entries = nil, nil
	return nil
}
