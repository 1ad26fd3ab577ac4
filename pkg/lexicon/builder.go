package lexicon

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"github.com/rivo/uniseg"
	"github.com/tchap/go-patricia/v2/patricia"
	"github.com/vmihailenco/msgpack/v5"
)

// Graphemes splits s into the symbols used by the automaton: one symbol per
// extended grapheme cluster.
func Graphemes(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Builder collects weighted words and compiles them into the .wsl format.
// Adding a word twice keeps the lower weight.
type Builder struct {
	words *patricia.Trie
	count int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{words: patricia.NewTrie()}
}

// Add records word with weight. Lower weights rank higher among completions.
func (b *Builder) Add(word string, weight float64) error {
	if word == "" {
		return errors.New("empty word")
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return fmt.Errorf("word %q has invalid weight %v", word, weight)
	}

	key := patricia.Prefix(word)
	if prev := b.words.Get(key); prev != nil {
		if weight < prev.(float64) {
			b.words.Set(key, weight)
		}
		return nil
	}
	b.words.Insert(key, weight)
	b.count++
	return nil
}

// Len returns the number of distinct words added.
func (b *Builder) Len() int { return b.count }

const writeLockWait = 5 * time.Second

type buildState struct {
	children map[uint32]uint32
	final    bool
	weight   float32
}

type wordEntry struct {
	word   string
	weight float64
}

// Build compiles the collected words.
func (b *Builder) Build(meta Metadata) ([]byte, error) {
	entries := make([]wordEntry, 0, b.count)
	b.words.Visit(func(p patricia.Prefix, item patricia.Item) error {
		entries = append(entries, wordEntry{word: string(p), weight: item.(float64)})
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].word < entries[j].word })

	// Symbol ids follow byte order of the symbol text.
	symbolSet := make(map[string]struct{})
	split := make([][]string, len(entries))
	for i, e := range entries {
		split[i] = Graphemes(e.word)
		for _, g := range split[i] {
			if len(g) > maxSymbolLen {
				return nil, fmt.Errorf("word %q has an oversized grapheme", e.word)
			}
			if meta.Marker != "" && g == meta.Marker {
				return nil, fmt.Errorf("word %q contains the completion marker %q", e.word, meta.Marker)
			}
			symbolSet[g] = struct{}{}
		}
	}
	if meta.Marker != "" {
		symbolSet[meta.Marker] = struct{}{}
	}
	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	ids := make(map[string]uint32, len(symbols))
	for i, s := range symbols {
		ids[s] = uint32(i)
	}

	states := []buildState{{}}
	for i, e := range entries {
		cur := uint32(0)
		for _, g := range split[i] {
			sym := ids[g]
			if states[cur].children == nil {
				states[cur].children = make(map[uint32]uint32)
			}
			next, ok := states[cur].children[sym]
			if !ok {
				next = uint32(len(states))
				states = append(states, buildState{})
				states[cur].children[sym] = next
			}
			cur = next
		}
		states[cur].final = true
		states[cur].weight = float32(e.weight)
	}

	markerID := NoSymbol
	var flags uint16
	if meta.Marker != "" {
		markerID = ids[meta.Marker]
		flags |= FlagHasMarker
	}

	var stateTable, arcTable []byte
	arcCount := uint32(0)
	for s, st := range states {
		arcs := make([]Arc, 0, len(st.children)+1)
		for sym, target := range st.children {
			arcs = append(arcs, Arc{Symbol: sym, Target: target})
		}
		if markerID != NoSymbol && len(st.children) > 0 {
			arcs = append(arcs, Arc{Symbol: markerID, Target: uint32(s)})
		}
		sort.Slice(arcs, func(i, j int) bool { return arcs[i].Symbol < arcs[j].Symbol })

		stateTable = appendState(stateTable, arcCount, uint32(len(arcs)), st.final, st.weight)
		for _, a := range arcs {
			arcTable = appendArc(arcTable, a)
		}
		arcCount += uint32(len(arcs))
	}

	metaBytes, err := msgpack.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	payload := make([]byte, 0, len(metaBytes)+len(stateTable)+len(arcTable)+len(symbols)*4)
	payload = append(payload, metaBytes...)
	for _, s := range symbols {
		payload = binary.LittleEndian.AppendUint16(payload, uint16(len(s)))
		payload = append(payload, s...)
	}
	payload = append(payload, stateTable...)
	payload = append(payload, arcTable...)

	h := header{
		version:     Version,
		flags:       flags,
		metaLen:     uint32(len(metaBytes)),
		symbolCount: uint32(len(symbols)),
		stateCount:  uint32(len(states)),
		arcCount:    arcCount,
		checksum:    xxhash.Sum64(payload),
	}
	copy(h.magic[:], Magic)

	out := h.appendTo(make([]byte, 0, headerSize+len(payload)))
	out = append(out, payload...)

	log.Debugf("Compiled %d words: %d symbols, %d states, %d arcs", len(entries), len(symbols), len(states), arcCount)
	return out, nil
}

// WriteFile compiles the lexicon and writes it to path. The write happens
// under an exclusive lock, which fails while any Archive holds the file open,
// and lands with a rename.
func (b *Builder) WriteFile(path string, meta Metadata) error {
	data, err := b.Build(meta)
	if err != nil {
		return err
	}

	fl := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), writeLockWait)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !locked {
		return fmt.Errorf("failed to lock %s, lexicon in use: %v", fl.Path(), err)
	}
	defer fl.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move lexicon into place: %w", err)
	}
	return nil
}
