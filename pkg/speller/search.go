package speller

import (
	"container/heap"
	"context"
	"math"

	"github.com/bastiangx/wordspell/pkg/lexicon"
)

const (
	// maxIterations stops a runaway search.
	maxIterations = 10_000_000
	// cancelCheckEvery is how many expansions pass between context checks.
	cancelCheckEvery = 1024
)

// search is one best-first traversal of the edit graph between a query and
// the lexicon prefix tree.
//
// A node is (state, query position, phase). Because the lexicon is a prefix
// tree, the text produced so far depends on the state alone, so the cheapest
// arrival at a node dominates every later one and each node is expanded once.
// Terminal nodes carry the final cost of a candidate and are accepted when
// popped, which keeps acceptance in global cost order.
type search struct {
	a        *lexicon.Archive
	cfg      *Config
	em       lexicon.ErrorModel
	pool     *nodePool
	query    []uint32
	text     []string
	complete bool
	marker   uint32

	frontier frontier
	closed   map[nodeID]struct{}
	seen     map[uint32]struct{}
	accepted []Suggestion
	seq      uint64

	iterations int
	cancelled  bool
}

func newSearch(sp *Speller, word string, complete bool) *search {
	text := lexicon.Graphemes(word)
	query := make([]uint32, len(text))
	for i, g := range text {
		query[i] = sp.archive.SymbolID(g)
	}
	s := &search{
		a:        sp.archive,
		cfg:      &sp.cfg,
		em:       sp.errorModel,
		pool:     sp.pool,
		query:    query,
		text:     text,
		complete: complete && sp.marker != lexicon.NoSymbol,
		marker:   sp.marker,
		closed:   make(map[nodeID]struct{}, 256),
		seen:     make(map[uint32]struct{}),
	}
	s.frontier.pool = sp.pool
	return s
}

// limit is the highest cost a node may have and still matter.
func (s *search) limit() float64 {
	l := s.cfg.MaxWeight
	if len(s.accepted) == 0 {
		return l
	}
	if s.cfg.Beam != nil {
		l = math.Min(l, s.accepted[0].Weight+*s.cfg.Beam)
	}
	if len(s.accepted) >= s.cfg.NBest {
		// Ties with the n-th candidate still get collected; rank cuts them.
		l = math.Min(l, s.accepted[s.cfg.NBest-1].Weight)
	}
	return l
}

// nodeID identifies a search node for the closed set.
type nodeID struct {
	state uint32
	pos   int32
	phase phase
}

func (s *search) push(state uint32, pos int32, ph phase, cost float64) error {
	if cost > s.limit() {
		return nil
	}
	if ph < phaseAccept {
		if _, done := s.closed[nodeID{state, pos, ph}]; done {
			return nil
		}
	}
	idx, err := s.pool.get()
	if err != nil {
		return err
	}
	s.pool.nodes[idx] = node{state: state, pos: pos, phase: ph, cost: cost, seq: s.seq}
	s.seq++
	heap.Push(&s.frontier, idx)
	return nil
}

// run searches until the frontier is exhausted, nothing left can beat the
// accepted candidates, or ctx is done. Accepted candidates are returned in
// cost order, possibly more than NBest when weights tie.
func (s *search) run(ctx context.Context) ([]Suggestion, error) {
	if s.cfg.NBest == 0 {
		return nil, nil
	}
	if err := s.push(s.a.Start(), 0, phaseInput, 0); err != nil {
		return nil, err
	}

	for s.frontier.Len() > 0 {
		if s.iterations >= maxIterations {
			log.Warnf("Search gave up after %d iterations with %d candidates", s.iterations, len(s.accepted))
			break
		}
		if s.iterations%cancelCheckEvery == 0 && ctx.Err() != nil {
			s.cancelled = true
			log.Debugf("Search stopped by context after %d iterations: %v", s.iterations, ctx.Err())
			break
		}
		s.iterations++

		idx := heap.Pop(&s.frontier).(int32)
		n := s.pool.nodes[idx]
		s.pool.put(idx)

		if n.cost > s.limit() {
			break
		}

		switch n.phase {
		case phaseAccept, phaseAcceptCompletion:
			s.accept(n)
			continue
		}

		key := nodeID{n.state, n.pos, n.phase}
		if _, done := s.closed[key]; done {
			continue
		}
		s.closed[key] = struct{}{}

		var err error
		if n.phase == phaseInput {
			err = s.expandInput(n)
		} else {
			err = s.expandCompletion(n)
		}
		if err != nil {
			return s.accepted, err
		}
	}
	return s.accepted, nil
}

func (s *search) accept(n node) {
	if _, dup := s.seen[n.state]; dup {
		return
	}
	s.seen[n.state] = struct{}{}

	completed := CompletionUnknown
	switch {
	case n.phase == phaseAcceptCompletion:
		completed = CompletionTrue
	case s.complete:
		completed = CompletionFalse
	}
	s.accepted = append(s.accepted, Suggestion{
		Value:     s.a.Output(n.state),
		Weight:    n.cost,
		Completed: completed,
	})
}

func (s *search) penalty(pos int) float64 {
	return s.cfg.Reweight.Penalty(pos, len(s.query))
}

// expandInput pushes the edit transitions of a node still reading the query.
// Lexicon weights are not charged here: a plain correction costs only its edits.
func (s *search) expandInput(n node) error {
	i := int(n.pos)
	end := len(s.query)

	if i == end {
		if final, _ := s.a.Final(n.state); final {
			if err := s.push(n.state, n.pos, phaseAccept, n.cost); err != nil {
				return err
			}
		}
		if s.complete {
			if arc, ok := s.a.FindArc(n.state, s.marker); ok && arc.Target == n.state {
				if err := s.push(n.state, n.pos, phaseMarked, n.cost); err != nil {
					return err
				}
			}
		}
	}

	if i < end {
		sym := s.query[i]
		if sym != lexicon.NoSymbol {
			if arc, ok := s.a.FindArc(n.state, sym); ok {
				if err := s.push(arc.Target, n.pos+1, phaseInput, n.cost); err != nil {
					return err
				}
			}
		}

		if s.em.Deletion > 0 {
			if err := s.push(n.state, n.pos+1, phaseInput, n.cost+s.em.Deletion+s.penalty(i)); err != nil {
				return err
			}
		}

		if s.em.Transposition > 0 && i+1 < end {
			a, b := s.query[i], s.query[i+1]
			if a != b && a != lexicon.NoSymbol && b != lexicon.NoSymbol {
				if first, ok := s.a.FindArc(n.state, b); ok {
					if second, ok := s.a.FindArc(first.Target, a); ok {
						cost := n.cost + s.em.Transposition + s.penalty(i)
						if err := s.push(second.Target, n.pos+2, phaseInput, cost); err != nil {
							return err
						}
					}
				}
			}
		}
	}

	for k, count := 0, s.a.NumArcs(n.state); k < count; k++ {
		arc := s.a.ArcAt(n.state, k)
		if arc.Target == n.state {
			continue
		}
		if i < end && arc.Symbol != s.query[i] {
			if c, ok := s.em.SubstitutionCost(s.text[i], s.a.Symbol(arc.Symbol)); ok {
				if err := s.push(arc.Target, n.pos+1, phaseInput, n.cost+c+s.penalty(i)); err != nil {
					return err
				}
			}
		}
		if s.em.Insertion > 0 {
			if err := s.push(arc.Target, n.pos, phaseInput, n.cost+s.em.Insertion+s.penalty(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// expandCompletion extends a completion along lexicon arcs, charging their
// weights, and offers final states once at least one symbol was appended.
func (s *search) expandCompletion(n node) error {
	if n.phase == phaseCompleting {
		if final, w := s.a.Final(n.state); final {
			if err := s.push(n.state, n.pos, phaseAcceptCompletion, n.cost+float64(w)); err != nil {
				return err
			}
		}
	}
	for k, count := 0, s.a.NumArcs(n.state); k < count; k++ {
		arc := s.a.ArcAt(n.state, k)
		if arc.Target == n.state {
			continue
		}
		if err := s.push(arc.Target, n.pos, phaseCompleting, n.cost+float64(arc.Weight)); err != nil {
			return err
		}
	}
	return nil
}
