package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/wordspell/pkg/lexicon"
	"github.com/bastiangx/wordspell/pkg/speller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, input string) (*InputHandler, *bytes.Buffer) {
	t.Helper()
	b := lexicon.NewBuilder()
	for w, wt := range map[string]float64{"hello": 1, "world": 1, "word": 2} {
		require.NoError(t, b.Add(w, wt))
	}
	path := filepath.Join(t.TempDir(), "en.wsl")
	require.NoError(t, b.WriteFile(path, lexicon.Metadata{Marker: "@", ErrorModel: lexicon.DefaultErrorModel()}))

	sp, err := speller.Open(path, speller.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { sp.Close() })

	var out bytes.Buffer
	h := NewInputHandler(sp, 3, true)
	h.SetIO(strings.NewReader(input), &out)
	return h, &out
}

func TestInputHandlerCheck(t *testing.T) {
	h, out := newHandler(t, "hello wrold\n\n")
	require.NoError(t, h.Start())

	got := out.String()
	assert.Contains(t, got, "hello")
	assert.Contains(t, got, "wrold")
	assert.Contains(t, got, "world")
	assert.Contains(t, got, "weight: 6.00")
}

func TestInputHandlerCursor(t *testing.T) {
	h, out := newHandler(t, "hello wor|\nhello |\n")
	require.NoError(t, h.Start())

	got := out.String()
	assert.Contains(t, got, "completion")
	assert.Contains(t, got, "No word at the cursor")
}

func TestFormatSuggestion(t *testing.T) {
	s := speller.Suggestion{Value: "world", Weight: 1, Completed: speller.CompletionTrue}
	assert.Contains(t, formatSuggestion(1, s, true), "completion")
	assert.NotContains(t, formatSuggestion(1, s, false), "weight")
}
