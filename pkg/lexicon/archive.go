package lexicon

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"
	"github.com/vmihailenco/msgpack/v5"
)

// lockWait bounds how long Open waits for a compiler holding the write lock.
const lockWait = 2 * time.Second

// Archive is an open compiled lexicon. The automaton tables are read in place
// from a read-only memory map.
//
// Readers take a lease with Acquire and give it back with Release. Close waits
// for outstanding leases, then unmaps the file; later Acquire calls fail with
// errs.ErrEngineClosed, which invalidates every speller built on the archive.
type Archive struct {
	path string
	file *os.File
	data mmap.MMap
	lock *flock.Flock
	hdr  header
	meta Metadata

	mu     sync.RWMutex
	closed bool

	once      sync.Once
	indexErr  error
	symbols   []string
	symbolIDs map[string]uint32
	states    []byte
	arcs      []byte
	markerID  uint32
	parents   []uint32
	via       []uint32
}

// Open maps the lexicon at path. It fails with errs.ErrIO when the file cannot
// be read or is not a compiled lexicon. Structural checks run in Validate.
func Open(path string) (*Archive, error) {
	fl := acquireReadLock(path)

	a, err := openMapped(path)
	if err != nil {
		if fl != nil {
			fl.Unlock()
		}
		return nil, err
	}
	a.lock = fl

	log.Debugf("Lexicon %s opened: %d bytes, version %d, locale %q", path, len(a.data), a.hdr.version, a.meta.Locale)
	return a, nil
}

func openMapped(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open lexicon %s: %v", errs.ErrIO, path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to stat lexicon %s: %v", errs.ErrIO, path, err)
	}
	if info.Size() < headerSize {
		f.Close()
		return nil, fmt.Errorf("%w: lexicon %s is too small (%d bytes)", errs.ErrIO, path, info.Size())
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to map lexicon %s: %v", errs.ErrIO, path, err)
	}

	a := &Archive{path: path, file: f, data: data, markerID: NoSymbol}
	fail := func(err error) (*Archive, error) {
		data.Unmap()
		f.Close()
		return nil, err
	}

	a.hdr, err = parseHeader(data)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", path, err))
	}

	// Metadata of other versions is left for Validate to reject.
	if a.hdr.version == Version {
		end := uint64(headerSize) + uint64(a.hdr.metaLen)
		if end > uint64(len(data)) {
			return fail(fmt.Errorf("%w: %s: metadata exceeds file size", errs.ErrIO, path))
		}
		if err := msgpack.Unmarshal(data[headerSize:end], &a.meta); err != nil {
			return fail(fmt.Errorf("%w: %s: failed to decode metadata: %v", errs.ErrIO, path, err))
		}
	}

	return a, nil
}

// acquireReadLock takes a shared lock beside the lexicon so a compiler cannot
// replace it underneath us. A lock that cannot be created (read-only
// directory) is not fatal.
func acquireReadLock(path string) *flock.Flock {
	fl := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()

	locked, err := fl.TryRLockContext(ctx, 50*time.Millisecond)
	if err != nil || !locked {
		log.Warnf("Could not take shared lock on %s: %v. Continuing without it", fl.Path(), err)
		return nil
	}
	return fl
}

// Path returns the file the archive was opened from.
func (a *Archive) Path() string { return a.path }

// Metadata returns the lexicon metadata.
func (a *Archive) Metadata() Metadata { return a.meta }

// Acquire takes a read lease on the archive tables.
func (a *Archive) Acquire() error {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return fmt.Errorf("lexicon %s: %w", a.path, errs.ErrEngineClosed)
	}
	return nil
}

// Release returns a lease taken with Acquire.
func (a *Archive) Release() { a.mu.RUnlock() }

// Closed reports whether Close has run.
func (a *Archive) Closed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

// Close waits for outstanding leases, then unmaps the file and drops the lock.
// Closing twice is a no-op.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.states, a.arcs = nil, nil
	a.parents, a.via = nil, nil

	var closeErrs []error
	if err := a.data.Unmap(); err != nil {
		closeErrs = append(closeErrs, fmt.Errorf("unmap: %w", err))
	}
	a.data = nil
	if err := a.file.Close(); err != nil {
		closeErrs = append(closeErrs, fmt.Errorf("close: %w", err))
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			closeErrs = append(closeErrs, fmt.Errorf("unlock: %w", err))
		}
	}
	log.Debugf("Lexicon %s closed", a.path)
	return errors.Join(closeErrs...)
}

// Validate checks the format version, the checksum and the table structure,
// and indexes the symbol table. It runs once; later calls return the first
// result. Failures wrap errs.ErrEngineUnavailable.
func (a *Archive) Validate() error {
	if err := a.Acquire(); err != nil {
		return err
	}
	defer a.Release()

	a.once.Do(func() {
		a.indexErr = a.index()
		if a.indexErr != nil {
			a.indexErr = fmt.Errorf("%w: %s: %v", errs.ErrEngineUnavailable, a.path, a.indexErr)
			return
		}
		log.Debugf("Lexicon %s validated: %d symbols, %d states, %d arcs",
			a.path, len(a.symbols), a.StateCount(), a.hdr.arcCount)
	})
	return a.indexErr
}

func (a *Archive) index() error {
	h := a.hdr
	if h.version != Version {
		return fmt.Errorf("incompatible format version %d (want %d)", h.version, Version)
	}
	if sum := xxhash.Sum64(a.data[headerSize:]); sum != h.checksum {
		return fmt.Errorf("checksum mismatch (%016x != %016x)", sum, h.checksum)
	}
	if h.stateCount == 0 {
		return errors.New("automaton has no states")
	}

	off := uint64(headerSize) + uint64(h.metaLen)
	size := uint64(len(a.data))

	symbols := make([]string, 0, h.symbolCount)
	ids := make(map[string]uint32, h.symbolCount)
	for i := uint32(0); i < h.symbolCount; i++ {
		if off+2 > size {
			return fmt.Errorf("symbol table truncated at symbol %d", i)
		}
		n := uint64(binary.LittleEndian.Uint16(a.data[off:]))
		off += 2
		if n == 0 || off+n > size {
			return fmt.Errorf("symbol %d has invalid length %d", i, n)
		}
		sym := string(a.data[off : off+n])
		if _, dup := ids[sym]; dup {
			return fmt.Errorf("duplicate symbol %q", sym)
		}
		ids[sym] = i
		symbols = append(symbols, sym)
		off += n
	}

	statesEnd := off + uint64(h.stateCount)*stateSize
	arcsEnd := statesEnd + uint64(h.arcCount)*arcSize
	if arcsEnd != size {
		return fmt.Errorf("table sizes do not match file size (%d != %d)", arcsEnd, size)
	}

	markerID := NoSymbol
	if a.meta.Marker != "" {
		id, ok := ids[a.meta.Marker]
		if !ok {
			return fmt.Errorf("marker %q missing from symbol table", a.meta.Marker)
		}
		markerID = id
	} else if h.flags&FlagHasMarker != 0 {
		return errors.New("marker flag set without a marker symbol")
	}

	a.symbols = symbols
	a.symbolIDs = ids
	a.states = a.data[off:statesEnd]
	a.arcs = a.data[statesEnd:arcsEnd]
	a.markerID = markerID

	return a.checkTree()
}

// checkTree verifies the automaton is a prefix tree rooted at state 0 with
// sorted, in-bounds arcs and finite non-negative weights.
func (a *Archive) checkTree() error {
	stateCount := a.hdr.stateCount
	incoming := make([]uint32, stateCount)
	parents := make([]uint32, stateCount)
	via := make([]uint32, stateCount)

	for s := uint32(0); s < stateCount; s++ {
		first, n := a.arcRange(s)
		if uint64(first)+uint64(n) > uint64(a.hdr.arcCount) {
			return fmt.Errorf("state %d arcs [%d,%d) out of range", s, first, uint64(first)+uint64(n))
		}
		if _, w := a.Final(s); !validWeight(w) {
			return fmt.Errorf("state %d has invalid final weight %v", s, w)
		}

		prev := int64(-1)
		for i := uint32(0); i < n; i++ {
			arc := a.arcAt(first + i)
			if int64(arc.Symbol) <= prev {
				return fmt.Errorf("state %d arcs not sorted by symbol", s)
			}
			prev = int64(arc.Symbol)
			if arc.Symbol >= uint32(len(a.symbols)) || arc.Target >= stateCount {
				return fmt.Errorf("state %d arc %d out of range", s, i)
			}
			if !validWeight(arc.Weight) {
				return fmt.Errorf("state %d arc %d has invalid weight %v", s, i, arc.Weight)
			}
			if arc.Target == s {
				if arc.Symbol != a.markerID || arc.Weight != 0 {
					return fmt.Errorf("state %d has a non-marker self-loop", s)
				}
				continue
			}
			incoming[arc.Target]++
			parents[arc.Target] = s
			via[arc.Target] = arc.Symbol
		}
	}

	if incoming[0] != 0 {
		return errors.New("root state has incoming arcs")
	}
	for s := uint32(1); s < stateCount; s++ {
		if incoming[s] != 1 {
			return fmt.Errorf("state %d has %d incoming arcs, not a prefix tree", s, incoming[s])
		}
	}
	a.parents, a.via = parents, via
	return nil
}

func validWeight(w float32) bool {
	f := float64(w)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// The accessors below read the mapped tables directly. Callers must hold a
// lease and the archive must have passed Validate.

// Start returns the root state.
func (a *Archive) Start() uint32 { return 0 }

// StateCount returns the number of automaton states.
func (a *Archive) StateCount() int { return int(a.hdr.stateCount) }

// SymbolCount returns the size of the symbol table.
func (a *Archive) SymbolCount() int { return len(a.symbols) }

// Symbol returns the text of symbol id.
func (a *Archive) Symbol(id uint32) string {
	if id >= uint32(len(a.symbols)) {
		return ""
	}
	return a.symbols[id]
}

// SymbolID returns the id of sym, or NoSymbol.
func (a *Archive) SymbolID(sym string) uint32 {
	if id, ok := a.symbolIDs[sym]; ok {
		return id
	}
	return NoSymbol
}

// MarkerID returns the id of the completion marker symbol, or NoSymbol.
func (a *Archive) MarkerID() uint32 { return a.markerID }

// NumArcs returns the number of arcs leaving state.
func (a *Archive) NumArcs(state uint32) int {
	_, n := a.arcRange(state)
	return int(n)
}

// ArcAt returns the i-th arc leaving state.
func (a *Archive) ArcAt(state uint32, i int) Arc {
	first, _ := a.arcRange(state)
	return a.arcAt(first + uint32(i))
}

// FindArc returns the arc leaving state on symbol.
func (a *Archive) FindArc(state, symbol uint32) (Arc, bool) {
	first, n := a.arcRange(state)
	i := sort.Search(int(n), func(i int) bool {
		return a.arcAt(first+uint32(i)).Symbol >= symbol
	})
	if i < int(n) {
		if arc := a.arcAt(first + uint32(i)); arc.Symbol == symbol {
			return arc, true
		}
	}
	return Arc{}, false
}

// Output returns the text spelled by the path from the root to state.
func (a *Archive) Output(state uint32) string {
	depth := 0
	for s := state; s != 0; s = a.parents[s] {
		depth++
	}
	syms := make([]uint32, depth)
	for s := state; s != 0; s = a.parents[s] {
		depth--
		syms[depth] = a.via[s]
	}
	var b strings.Builder
	for _, id := range syms {
		b.WriteString(a.symbols[id])
	}
	return b.String()
}

// Final reports whether state accepts, and its final weight.
func (a *Archive) Final(state uint32) (bool, float32) {
	rec := a.states[uint64(state)*stateSize:]
	return rec[8] != 0, math.Float32frombits(binary.LittleEndian.Uint32(rec[12:]))
}

func (a *Archive) arcRange(state uint32) (first, n uint32) {
	rec := a.states[uint64(state)*stateSize:]
	return binary.LittleEndian.Uint32(rec), binary.LittleEndian.Uint32(rec[4:])
}

func (a *Archive) arcAt(i uint32) Arc {
	rec := a.arcs[uint64(i)*arcSize:]
	return Arc{
		Symbol: binary.LittleEndian.Uint32(rec),
		Target: binary.LittleEndian.Uint32(rec[4:]),
		Weight: math.Float32frombits(binary.LittleEndian.Uint32(rec[8:])),
	}
}
