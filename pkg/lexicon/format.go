/*
Package lexicon stores and loads compiled lexicons.

A compiled lexicon (.wsl) is a weighted prefix tree over grapheme symbols,
written once by the Builder and read in place from a memory map by Archive.

# Layout

All integers are little-endian.

	header   magic "WSPL" | version u16 | flags u16 | metaLen u32 |
	         symbolCount u32 | stateCount u32 | arcCount u32 | checksum u64
	meta     msgpack encoded Metadata (metaLen bytes)
	symbols  symbolCount x (len u16 | UTF-8 bytes)
	states   stateCount x (firstArc u32 | arcCount u32 | final u8 | pad 3 | finalWeight f32)
	arcs     arcCount x (symbol u32 | target u32 | weight f32)

The checksum is xxhash64 over everything after the header. State 0 is the
root. Arcs of one state are contiguous and sorted by symbol id. Every state
except the root has exactly one incoming arc, apart from completion-marker
self-loops, which the compiler adds with weight 0 on each non-leaf state when
Metadata.Marker is set.

Word weights live on final states and arcs. They rank completions; the speller
charges them only on completion paths, never on plain correction paths.
*/
package lexicon

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bastiangx/wordspell/pkg/errs"
)

const (
	// Magic opens every compiled lexicon.
	Magic = "WSPL"
	// Version is the format version written by this package.
	Version uint16 = 1

	// FlagHasMarker is set when the lexicon carries completion-marker arcs.
	FlagHasMarker uint16 = 1 << 0

	headerSize = 32
	stateSize  = 16
	arcSize    = 12

	maxSymbolLen = math.MaxUint16
)

// NoSymbol is the id given to graphemes that are not in the symbol table. It matches no arc.
const NoSymbol = ^uint32(0)

// ErrorModel holds the base cost of each edit class. A cost <= 0 disables the class.
type ErrorModel struct {
	Substitution  float64 `msgpack:"sub" toml:"substitution" yaml:"substitution"`
	Insertion     float64 `msgpack:"ins" toml:"insertion" yaml:"insertion"`
	Deletion      float64 `msgpack:"del" toml:"deletion" yaml:"deletion"`
	Transposition float64 `msgpack:"swap" toml:"transposition" yaml:"transposition"`
	// Substitutions overrides the substitution cost of single pairs, keyed "a>b".
	// An override <= 0 forbids that pair.
	Substitutions map[string]float64 `msgpack:"pairs,omitempty" toml:"substitutions" yaml:"substitutions"`
}

// DefaultErrorModel charges 1 for every edit class.
func DefaultErrorModel() ErrorModel {
	return ErrorModel{
		Substitution:  1,
		Insertion:     1,
		Deletion:      1,
		Transposition: 1,
	}
}

// SubstitutionCost returns the cost of replacing from with to, or false if substitution is disabled.
func (em ErrorModel) SubstitutionCost(from, to string) (float64, bool) {
	if w, ok := em.Substitutions[from+">"+to]; ok {
		return w, w > 0
	}
	return em.Substitution, em.Substitution > 0
}

// Metadata describes a compiled lexicon.
type Metadata struct {
	Locale      string     `msgpack:"locale" toml:"locale" yaml:"locale"`
	Title       string     `msgpack:"title" toml:"title" yaml:"title"`
	Description string     `msgpack:"desc,omitempty" toml:"description" yaml:"description"`
	Producer    string     `msgpack:"producer,omitempty" toml:"producer" yaml:"producer"`
	Marker      string     `msgpack:"marker,omitempty" toml:"marker" yaml:"marker"`
	ErrorModel  ErrorModel `msgpack:"errors" toml:"errors" yaml:"errors"`
}

// Arc is one transition of the automaton.
type Arc struct {
	Symbol uint32
	Target uint32
	Weight float32
}

type header struct {
	magic       [4]byte
	version     uint16
	flags       uint16
	metaLen     uint32
	symbolCount uint32
	stateCount  uint32
	arcCount    uint32
	checksum    uint64
}

func (h header) appendTo(b []byte) []byte {
	b = append(b, h.magic[:]...)
	b = binary.LittleEndian.AppendUint16(b, h.version)
	b = binary.LittleEndian.AppendUint16(b, h.flags)
	b = binary.LittleEndian.AppendUint32(b, h.metaLen)
	b = binary.LittleEndian.AppendUint32(b, h.symbolCount)
	b = binary.LittleEndian.AppendUint32(b, h.stateCount)
	b = binary.LittleEndian.AppendUint32(b, h.arcCount)
	b = binary.LittleEndian.AppendUint64(b, h.checksum)
	return b
}

func parseHeader(b []byte) (header, error) {
	var h header
	if len(b) < headerSize {
		return h, fmt.Errorf("%w: file too small for header (%d bytes)", errs.ErrIO, len(b))
	}
	copy(h.magic[:], b[:4])
	if string(h.magic[:]) != Magic {
		return h, fmt.Errorf("%w: not a compiled lexicon (magic %q)", errs.ErrIO, h.magic[:])
	}
	h.version = binary.LittleEndian.Uint16(b[4:])
	h.flags = binary.LittleEndian.Uint16(b[6:])
	h.metaLen = binary.LittleEndian.Uint32(b[8:])
	h.symbolCount = binary.LittleEndian.Uint32(b[12:])
	h.stateCount = binary.LittleEndian.Uint32(b[16:])
	h.arcCount = binary.LittleEndian.Uint32(b[20:])
	h.checksum = binary.LittleEndian.Uint64(b[24:])
	return h, nil
}

func appendState(b []byte, firstArc, arcCount uint32, final bool, weight float32) []byte {
	b = binary.LittleEndian.AppendUint32(b, firstArc)
	b = binary.LittleEndian.AppendUint32(b, arcCount)
	var f byte
	if final {
		f = 1
	}
	b = append(b, f, 0, 0, 0)
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(weight))
}

func appendArc(b []byte, a Arc) []byte {
	b = binary.LittleEndian.AppendUint32(b, a.Symbol)
	b = binary.LittleEndian.AppendUint32(b, a.Target)
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(a.Weight))
}
