package speller

import (
	"fmt"

	"github.com/bastiangx/wordspell/pkg/errs"
)

// Position classifies where in the query word an edit happens.
type Position int

const (
	PositionStart Position = iota
	PositionMiddle
	PositionEnd
)

func (p Position) String() string {
	switch p {
	case PositionStart:
		return "start"
	case PositionMiddle:
		return "middle"
	case PositionEnd:
		return "end"
	}
	return "unknown"
}

// Classify returns the position class of symbol index pos in a word of n
// symbols. The first symbol is the start, the last one (or any index past it)
// is the end, anything else is the middle. A one-symbol word is all start.
func Classify(pos, n int) Position {
	switch {
	case pos <= 0:
		return PositionStart
	case pos >= n-1:
		return PositionEnd
	default:
		return PositionMiddle
	}
}

// Reweight adds a position-dependent cost to every edit.
type Reweight struct {
	StartPenalty float64
	MidPenalty   float64
	EndPenalty   float64
}

// DefaultReweight returns start 10, middle 5, end 10.
func DefaultReweight() *Reweight {
	return &Reweight{StartPenalty: 10, MidPenalty: 5, EndPenalty: 10}
}

// Validate rejects negative penalties.
func (r *Reweight) Validate() error {
	if !nonNegative(r.StartPenalty) || !nonNegative(r.MidPenalty) || !nonNegative(r.EndPenalty) {
		return fmt.Errorf("%w: reweight penalties must be >= 0, got start=%v mid=%v end=%v",
			errs.ErrInvalidInput, r.StartPenalty, r.MidPenalty, r.EndPenalty)
	}
	return nil
}

// Penalty returns the extra cost of an edit at symbol index pos of an n-symbol word.
func (r *Reweight) Penalty(pos, n int) float64 {
	if r == nil {
		return 0
	}
	switch Classify(pos, n) {
	case PositionStart:
		return r.StartPenalty
	case PositionEnd:
		return r.EndPenalty
	default:
		return r.MidPenalty
	}
}
