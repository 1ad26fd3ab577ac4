// Package cli handles cmd line input for checking and debugging the speller in real time.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/wordspell/pkg/speller"
	"github.com/bastiangx/wordspell/pkg/tokenizer"
	"github.com/charmbracelet/log"
)

// cursor splits a line into the text before and after the cursor.
const cursor = "|"

// InputHandler reads lines from stdin. A line holding a "|" is treated as
// text with a cursor and the word under it is completed or corrected; any
// other line is checked word by word.
type InputHandler struct {
	speller     *speller.Speller
	tok         *tokenizer.Tokenizer
	limit       int
	showWeights bool
	reader      io.Reader
	out         *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(sp *speller.Speller, limit int, showWeights bool) *InputHandler {
	return &InputHandler{
		speller:     sp,
		tok:         tokenizer.New(),
		limit:       limit,
		showWeights: showWeights,
		reader:      os.Stdin,
		out: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: false,
			Level:           log.InfoLevel,
		}),
	}
}

// SetIO replaces stdin and the output stream.
func (h *InputHandler) SetIO(r io.Reader, w io.Writer) {
	h.reader = r
	h.out = log.NewWithOptions(w, log.Options{ReportTimestamp: false, Level: log.InfoLevel})
}

// Start begins the interface loop. It returns nil when the input ends.
func (h *InputHandler) Start() error {
	h.out.Print("wordspell CLI")
	h.out.Print("type words, or text with a | at the cursor (Ctrl+C to exit):")

	scanner := bufio.NewScanner(h.reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
	return scanner.Err()
}

func (h *InputHandler) handleInput(line string) {
	if before, after, ok := strings.Cut(line, cursor); ok {
		wc := h.tok.Segment(before, after)
		if wc.Current.IsEmpty() {
			h.out.Warn("No word at the cursor")
			return
		}
		log.Debug("Cursor context",
			"current", wc.Current.String(),
			"before", wc.FirstBefore.String(),
			"after", wc.FirstAfter.String())
		h.suggest(wc.Current.String(), &wc)
		return
	}

	for _, w := range h.tok.Words(line) {
		ok, err := h.speller.IsCorrect(w.Word)
		if err != nil {
			h.out.Errorf("Check failed for '%s': %v", w.Word, err)
			return
		}
		if ok {
			h.out.Print(formatCorrect(w.Word))
			continue
		}
		h.suggest(w.Word, nil)
	}
}

func (h *InputHandler) suggest(word string, wc *tokenizer.WordContext) {
	start := time.Now()
	list, err := h.speller.Suggest(context.Background(), word, wc)
	if err != nil {
		h.out.Errorf("Suggest failed for '%s': %v", word, err)
		return
	}
	defer list.Close()
	log.Debugf("Took [ %v ] for '%s'", time.Since(start), word)

	found, err := list.All()
	if err != nil {
		h.out.Errorf("Reading suggestions for '%s': %v", word, err)
		return
	}
	if h.limit > 0 && len(found) > h.limit {
		found = found[:h.limit]
	}
	if len(found) == 0 {
		h.out.Warnf("No suggestions found for '%s'", word)
		return
	}

	h.out.Printf("%s %d suggestions:", formatMisspelled(word), len(found))
	for i, s := range found {
		h.out.Print(formatSuggestion(i+1, s, h.showWeights))
	}
}
