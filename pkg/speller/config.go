package speller

import (
	"fmt"
	"math"

	"github.com/bastiangx/wordspell/pkg/errs"
)

// PoolPolicy decides what happens when a search needs more nodes than the pool holds.
type PoolPolicy int

const (
	// PoolGrow lets the pool grow for the rest of the search and shrinks it afterwards.
	PoolGrow PoolPolicy = iota
	// PoolStrict fails the search with errs.ErrResourceExhausted.
	PoolStrict
)

func (p PoolPolicy) String() string {
	switch p {
	case PoolGrow:
		return "grow"
	case PoolStrict:
		return "strict"
	}
	return fmt.Sprintf("PoolPolicy(%d)", int(p))
}

// Config holds the search parameters of a Speller. It is copied at
// construction and never changes afterwards.
type Config struct {
	// NBest is the maximum number of suggestions. 0 yields an empty list.
	NBest int
	// MaxWeight discards every path costing more.
	MaxWeight float64
	// Beam, when set, discards paths costing more than the best accepted
	// candidate plus Beam.
	Beam *float64
	// Reweight adds positional edit penalties. Nil means none.
	Reweight *Reweight
	// NodePoolSize is the number of search nodes kept between searches.
	NodePoolSize int
	// Recase searches case variants of the input and reapplies its casing.
	Recase bool
	// CompletionMarker names the marker symbol. Empty uses the lexicon's.
	CompletionMarker string
	// PoolPolicy picks grow or fail on pool exhaustion.
	PoolPolicy PoolPolicy
}

// DefaultConfig returns n-best 10, max weight 10000, no beam, default
// reweighting, a 128 node pool and recasing on.
func DefaultConfig() Config {
	return Config{
		NBest:        10,
		MaxWeight:    10000,
		Reweight:     DefaultReweight(),
		NodePoolSize: 128,
		Recase:       true,
		PoolPolicy:   PoolGrow,
	}
}

// Float returns a pointer to v, for Config.Beam.
func Float(v float64) *float64 { return &v }

// Validate reports the first invalid field, wrapped in errs.ErrInvalidInput.
func (c Config) Validate() error {
	switch {
	case c.NBest < 0:
		return fmt.Errorf("%w: n_best must be >= 0, got %d", errs.ErrInvalidInput, c.NBest)
	case !nonNegative(c.MaxWeight):
		return fmt.Errorf("%w: max_weight must be >= 0, got %v", errs.ErrInvalidInput, c.MaxWeight)
	case c.Beam != nil && !nonNegative(*c.Beam):
		return fmt.Errorf("%w: beam must be >= 0, got %v", errs.ErrInvalidInput, *c.Beam)
	case c.NodePoolSize < 1:
		return fmt.Errorf("%w: node_pool_size must be >= 1, got %d", errs.ErrInvalidInput, c.NodePoolSize)
	case c.PoolPolicy != PoolGrow && c.PoolPolicy != PoolStrict:
		return fmt.Errorf("%w: unknown pool policy %d", errs.ErrInvalidInput, c.PoolPolicy)
	}
	if c.Reweight != nil {
		return c.Reweight.Validate()
	}
	return nil
}

// clone deep-copies the pointer fields.
func (c Config) clone() Config {
	if c.Beam != nil {
		c.Beam = Float(*c.Beam)
	}
	if c.Reweight != nil {
		rw := *c.Reweight
		c.Reweight = &rw
	}
	return c
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && v >= 0
}
