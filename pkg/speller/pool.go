package speller

import (
	"fmt"

	"github.com/bastiangx/wordspell/pkg/errs"
)

type phase uint8

const (
	phaseInput      phase = iota // consuming query symbols
	phaseMarked                  // marker taken, nothing appended yet
	phaseCompleting              // at least one symbol appended after the marker
	phaseAccept                  // terminal: plain word
	phaseAcceptCompletion        // terminal: completion
)

// node is one search record. Records live in the pool arena and are
// referred to by slot index.
type node struct {
	state uint32
	pos   int32
	phase phase
	cost  float64
	seq   uint64
}

// nodePool is a slot-indexed arena with a free list. Capacity is the number
// of records that may be live at once before the policy kicks in.
type nodePool struct {
	nodes    []node
	free     []int32
	live     int
	capacity int
	strict   bool
	grown    bool
}

func newNodePool(capacity int, strict bool) *nodePool {
	return &nodePool{
		nodes:    make([]node, 0, capacity),
		free:     make([]int32, 0, capacity),
		capacity: capacity,
		strict:   strict,
	}
}

// get returns a free slot. Over capacity it either grows, noting it in grown,
// or fails in strict mode.
func (p *nodePool) get() (int32, error) {
	if p.live >= p.capacity {
		if p.strict {
			return -1, fmt.Errorf("%w: node pool of %d records is full", errs.ErrResourceExhausted, p.capacity)
		}
		p.grown = true
	}
	p.live++
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return idx, nil
	}
	p.nodes = append(p.nodes, node{})
	return int32(len(p.nodes) - 1), nil
}

// put returns a slot to the free list.
func (p *nodePool) put(idx int32) {
	p.live--
	p.free = append(p.free, idx)
}

// reset frees every slot and drops storage grown past capacity.
func (p *nodePool) reset() {
	if cap(p.nodes) > p.capacity {
		p.nodes = make([]node, 0, p.capacity)
		p.free = make([]int32, 0, p.capacity)
	} else {
		p.nodes = p.nodes[:0]
		p.free = p.free[:0]
	}
	p.live = 0
	p.grown = false
}

// frontier is a min-heap of pool slots ordered by cost, then insertion order.
type frontier struct {
	pool  *nodePool
	slots []int32
}

func (f *frontier) Len() int { return len(f.slots) }

func (f *frontier) Less(i, j int) bool {
	a, b := &f.pool.nodes[f.slots[i]], &f.pool.nodes[f.slots[j]]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return a.seq < b.seq
}

func (f *frontier) Swap(i, j int) { f.slots[i], f.slots[j] = f.slots[j], f.slots[i] }

func (f *frontier) Push(x any) { f.slots = append(f.slots, x.(int32)) }

func (f *frontier) Pop() any {
	n := len(f.slots)
	idx := f.slots[n-1]
	f.slots = f.slots[:n-1]
	return idx
}
