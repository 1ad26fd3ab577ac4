/*
Package speller checks words against a compiled lexicon and suggests ranked
corrections and completions.

A Speller is a session bound to one lexicon.Archive:

	a, err := lexicon.Open("en.wsl")
	sp, err := speller.FromArchive(a, speller.DefaultConfig())
	ok, err := sp.IsCorrect("wrold")                 // false
	list, err := sp.Suggest(ctx, "wrold", nil)       // world, ...
	defer list.Close()

# Search

Suggest runs a best-first search over the edit graph between the query and
the lexicon. Query and lexicon are compared per grapheme cluster. Edits are
substitution, insertion, deletion and transposition of adjacent symbols, each
costing its base weight from the lexicon's error model plus a positional
penalty (Reweight) for edits at the start, middle or end of the word.
Candidates come out in ascending cost, so the first NBest distinct values are
the best ones. Ties are broken by byte order of the value.

When a completion marker is available and the caller passes a WordContext
with a current word, the search may also take the marker once the query is
consumed and keep walking the lexicon. Those candidates are charged the
lexicon's word weights and reported as CompletionTrue.

# Concurrency

IsCorrect is read-only and safe for concurrent use. Suggest uses the
speller's node pool and is serialised by an internal mutex; run one Speller
per worker from the same Archive for parallel searches.
*/
package speller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bastiangx/wordspell/internal/logger"
	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/bastiangx/wordspell/pkg/lexicon"
	"github.com/bastiangx/wordspell/pkg/tokenizer"
)

var log = logger.New("speller")

// Speller is a search session over one archive.
type Speller struct {
	archive     *lexicon.Archive
	ownsArchive bool
	cfg         Config
	errorModel  lexicon.ErrorModel
	marker      uint32

	mu         sync.Mutex // guards pool and warnedGrow
	pool       *nodePool
	warnedGrow bool

	closed atomic.Bool
}

// FromArchive builds a Speller on a. The archive is validated on first use;
// a corrupt or incompatible lexicon fails with errs.ErrEngineUnavailable. The
// archive must stay open for the life of the speller.
func FromArchive(a *lexicon.Archive, cfg Config) (*Speller, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil archive", errs.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := a.Acquire(); err != nil {
		return nil, err
	}
	defer a.Release()

	cfg = cfg.clone()
	meta := a.Metadata()

	marker := lexicon.NoSymbol
	name := cfg.CompletionMarker
	if name == "" {
		name = meta.Marker
	}
	if name != "" {
		marker = a.SymbolID(name)
		if marker == lexicon.NoSymbol {
			log.Warnf("Completion marker %q is not in lexicon %s, completion disabled", name, a.Path())
		}
	}

	sp := &Speller{
		archive:    a,
		cfg:        cfg,
		errorModel: meta.ErrorModel,
		marker:     marker,
		pool:       newNodePool(cfg.NodePoolSize, cfg.PoolPolicy == PoolStrict),
	}
	log.Debugf("Speller ready: lexicon=%s locale=%q nBest=%d maxWeight=%v completion=%v",
		a.Path(), meta.Locale, cfg.NBest, cfg.MaxWeight, marker != lexicon.NoSymbol)
	return sp, nil
}

// Open opens the lexicon at path and builds a Speller that owns it. Closing
// the speller closes the archive.
func Open(path string, cfg Config) (*Speller, error) {
	a, err := lexicon.Open(path)
	if err != nil {
		return nil, err
	}
	sp, err := FromArchive(a, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	sp.ownsArchive = true
	return sp, nil
}

// Config returns a copy of the speller's configuration.
func (sp *Speller) Config() Config { return sp.cfg.clone() }

// Archive returns the archive the speller reads.
func (sp *Speller) Archive() *lexicon.Archive { return sp.archive }

// CompletionEnabled reports whether a completion marker is in effect.
func (sp *Speller) CompletionEnabled() bool { return sp.marker != lexicon.NoSymbol }

// Closed reports whether the speller or its archive has been closed.
func (sp *Speller) Closed() bool { return sp.closed.Load() || sp.archive.Closed() }

func (sp *Speller) acquire() error {
	if sp.closed.Load() {
		return fmt.Errorf("speller: %w", errs.ErrEngineClosed)
	}
	return sp.archive.Acquire()
}

// IsCorrect reports whether word, or one of its case variants when Recase is
// on, is a lexicon word. Words without letters are always correct.
func (sp *Speller) IsCorrect(word string) (bool, error) {
	if err := sp.acquire(); err != nil {
		return false, err
	}
	defer sp.archive.Release()

	if !hasLetter(word) {
		return true, nil
	}
	if sp.accepts(word) {
		return true, nil
	}
	if sp.cfg.Recase {
		for _, v := range variantsOf(word).words[1:] {
			if sp.accepts(v) {
				return true, nil
			}
		}
	}
	return false, nil
}

// accepts walks word through the lexicon without edits.
func (sp *Speller) accepts(word string) bool {
	state := sp.archive.Start()
	for _, g := range lexicon.Graphemes(word) {
		id := sp.archive.SymbolID(g)
		if id == lexicon.NoSymbol {
			return false
		}
		arc, ok := sp.archive.FindArc(state, id)
		if !ok || arc.Target == state {
			return false
		}
		state = arc.Target
	}
	final, _ := sp.archive.Final(state)
	return final
}

// Suggest returns up to NBest ranked candidates for word. Pass wc (usually
// from tokenizer.Segment) to enable completion of the current word.
//
// When ctx is done mid-search the candidates accepted so far are returned,
// still ranked, without an error. Words without letters get an empty list.
func (sp *Speller) Suggest(ctx context.Context, word string, wc *tokenizer.WordContext) (*SuggestionList, error) {
	if err := sp.acquire(); err != nil {
		return nil, err
	}
	defer sp.archive.Release()

	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.closed.Load() {
		return nil, fmt.Errorf("speller: %w", errs.ErrEngineClosed)
	}

	if sp.cfg.NBest == 0 || !hasLetter(word) {
		return newSuggestionList(nil), nil
	}

	complete := wc != nil && !wc.Current.IsEmpty()

	variants := caseVariants{words: []string{word}}
	if sp.cfg.Recase {
		variants = variantsOf(word)
	}

	best := make(map[string]int)
	var merged []Suggestion
	for _, v := range variants.words {
		found, err := sp.searchOne(ctx, v, complete)
		if err != nil {
			return nil, err
		}
		for _, s := range found {
			s.Value = variants.mutation.apply(s.Value)
			merged = mergeSuggestion(merged, best, s)
		}
		if variants.mode == modeFirstResults && len(found) > 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return newSuggestionList(rank(merged, sp.cfg.NBest)), nil
}

// mergeSuggestion keeps one entry per value with the lowest weight.
func mergeSuggestion(merged []Suggestion, best map[string]int, s Suggestion) []Suggestion {
	if i, ok := best[s.Value]; ok {
		if s.Weight < merged[i].Weight {
			merged[i] = s
		}
		return merged
	}
	best[s.Value] = len(merged)
	return append(merged, s)
}

func (sp *Speller) searchOne(ctx context.Context, word string, complete bool) ([]Suggestion, error) {
	s := newSearch(sp, word, complete)
	found, err := s.run(ctx)

	if sp.pool.grown {
		if !sp.warnedGrow {
			log.Warnf("Node pool exhausted, grew from %d to %d records for %q", sp.cfg.NodePoolSize, len(sp.pool.nodes), word)
			sp.warnedGrow = true
		} else {
			log.Debugf("Node pool grew to %d records for %q", len(sp.pool.nodes), word)
		}
	}
	sp.pool.reset()
	return found, err
}

// Close releases the speller. It waits for a running Suggest to finish.
// A speller built with Open also closes its archive. Closing twice is a no-op.
func (sp *Speller) Close() error {
	if sp.closed.Swap(true) {
		return nil
	}
	sp.mu.Lock()
	sp.pool = nil
	sp.mu.Unlock()

	if sp.ownsArchive {
		return sp.archive.Close()
	}
	return nil
}
