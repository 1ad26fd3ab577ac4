package speller

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/bastiangx/wordspell/pkg/lexicon"
	"github.com/bastiangx/wordspell/pkg/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWords = map[string]float64{
	"world":  1,
	"word":   2,
	"would":  3,
	"wonder": 4,
	"hello":  5,
	"help":   6,
	"sámi":   7,
}

func writeLexicon(t *testing.T, marker string, words map[string]float64) string {
	t.Helper()
	b := lexicon.NewBuilder()
	for w, wt := range words {
		require.NoError(t, b.Add(w, wt))
	}
	path := filepath.Join(t.TempDir(), "en.wsl")
	require.NoError(t, b.WriteFile(path, lexicon.Metadata{
		Locale:     "en",
		Marker:     marker,
		ErrorModel: lexicon.DefaultErrorModel(),
	}))
	return path
}

func openSpeller(t *testing.T, marker string, cfg Config) *Speller {
	t.Helper()
	sp, err := Open(writeLexicon(t, marker, testWords), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sp.Close() })
	return sp
}

func suggestAll(t *testing.T, sp *Speller, word string, wc *tokenizer.WordContext) []Suggestion {
	t.Helper()
	list, err := sp.Suggest(context.Background(), word, wc)
	require.NoError(t, err)
	defer list.Close()
	all, err := list.All()
	require.NoError(t, err)
	return all
}

func TestIsCorrect(t *testing.T) {
	sp := openSpeller(t, "", DefaultConfig())

	tests := []struct {
		word string
		want bool
	}{
		{"world", true},
		{"wrold", false},
		{"wor", false},
		{"worlds", false},
		{"sámi", true},
		{"World", true},
		{"WORLD", true},
		{"wOrLd", false},
		{"123", true},
		{"", true},
		{"...", true},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, err := sp.IsCorrect(tt.word)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCorrectWithoutRecase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recase = false
	sp := openSpeller(t, "", cfg)

	ok, err := sp.IsCorrect("World")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = sp.IsCorrect("world")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSuggestTransposition(t *testing.T) {
	sp := openSpeller(t, "", DefaultConfig())

	got := suggestAll(t, sp, "wrold", nil)
	require.NotEmpty(t, got)
	assert.Equal(t, "world", got[0].Value)
	// one transposition at index 1 of 5: base 1 + middle penalty 5
	assert.Equal(t, 6.0, got[0].Weight)
	assert.Equal(t, CompletionUnknown, got[0].Completed)
}

func TestSuggestCorrectWordFirst(t *testing.T) {
	sp := openSpeller(t, "", DefaultConfig())

	for word := range testWords {
		t.Run(word, func(t *testing.T) {
			ok, err := sp.IsCorrect(word)
			require.NoError(t, err)
			require.True(t, ok)

			got := suggestAll(t, sp, word, nil)
			require.NotEmpty(t, got)
			assert.Equal(t, word, got[0].Value)
			assert.Zero(t, got[0].Weight)
		})
	}
}

func TestSuggestRankingAndBounds(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10} {
		cfg := DefaultConfig()
		cfg.NBest = n
		sp := openSpeller(t, "", cfg)

		for _, word := range []string{"wrold", "helo", "wodr", "x"} {
			got := suggestAll(t, sp, word, nil)
			assert.LessOrEqual(t, len(got), n)

			seen := make(map[string]bool)
			for i, s := range got {
				assert.False(t, seen[s.Value], "duplicate %q", s.Value)
				seen[s.Value] = true
				assert.GreaterOrEqual(t, s.Weight, 0.0)
				assert.LessOrEqual(t, s.Weight, cfg.MaxWeight)
				if i == 0 {
					continue
				}
				prev := got[i-1]
				assert.True(t, prev.Weight < s.Weight || (prev.Weight == s.Weight && prev.Value < s.Value),
					"%v before %v", prev, s)
			}
		}
	}
}

func TestSuggestDeterministic(t *testing.T) {
	sp := openSpeller(t, "", DefaultConfig())
	first := suggestAll(t, sp, "helo", nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, suggestAll(t, sp, "helo", nil))
	}
}

func TestSuggestEmptyResults(t *testing.T) {
	t.Run("n best zero", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.NBest = 0
		sp := openSpeller(t, "", cfg)
		assert.Empty(t, suggestAll(t, sp, "wrold", nil))
	})

	t.Run("no letters", func(t *testing.T) {
		sp := openSpeller(t, "", DefaultConfig())
		assert.Empty(t, suggestAll(t, sp, "1234", nil))
		assert.Empty(t, suggestAll(t, sp, "", nil))
	})

	t.Run("max weight", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxWeight = 5
		sp := openSpeller(t, "", cfg)
		assert.Empty(t, suggestAll(t, sp, "wrold", nil))
	})

	t.Run("max weight inclusive", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxWeight = 6
		sp := openSpeller(t, "", cfg)
		got := suggestAll(t, sp, "wrold", nil)
		require.Len(t, got, 1)
		assert.Equal(t, "world", got[0].Value)
	})
}

func TestSuggestBeam(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Beam = Float(0)
	sp := openSpeller(t, "", cfg)

	got := suggestAll(t, sp, "wrold", nil)
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Equal(t, got[0].Weight, s.Weight)
	}

	cfg.Beam = Float(100)
	wide := openSpeller(t, "", cfg)
	assert.Greater(t, len(suggestAll(t, wide, "wrold", nil)), len(got))
}

func TestSuggestCompletion(t *testing.T) {
	sp := openSpeller(t, "@", DefaultConfig())
	require.True(t, sp.CompletionEnabled())

	wc := tokenizer.Segment("wor", "")
	got := suggestAll(t, sp, "wor", &wc)
	require.GreaterOrEqual(t, len(got), 2)

	assert.Equal(t, Suggestion{Value: "world", Weight: 1, Completed: CompletionTrue}, got[0])
	assert.Equal(t, Suggestion{Value: "word", Weight: 2, Completed: CompletionTrue}, got[1])
	for _, s := range got {
		assert.NotEqual(t, CompletionUnknown, s.Completed, s.Value)
	}

	t.Run("whole word is not completed", func(t *testing.T) {
		wc := tokenizer.Segment("hello", "")
		got := suggestAll(t, sp, "hello", &wc)
		require.NotEmpty(t, got)
		assert.Equal(t, Suggestion{Value: "hello", Weight: 0, Completed: CompletionFalse}, got[0])
	})

	t.Run("without context", func(t *testing.T) {
		for _, s := range suggestAll(t, sp, "wor", nil) {
			assert.Equal(t, CompletionUnknown, s.Completed, s.Value)
		}
	})

	t.Run("empty current word", func(t *testing.T) {
		wc := tokenizer.Segment("wor ", "")
		for _, s := range suggestAll(t, sp, "wor", &wc) {
			assert.Equal(t, CompletionUnknown, s.Completed, s.Value)
		}
	})
}

func TestSuggestCompletionDisabled(t *testing.T) {
	t.Run("lexicon without marker", func(t *testing.T) {
		sp := openSpeller(t, "", DefaultConfig())
		assert.False(t, sp.CompletionEnabled())

		wc := tokenizer.Segment("wor", "")
		for _, s := range suggestAll(t, sp, "wor", &wc) {
			assert.Equal(t, CompletionUnknown, s.Completed, s.Value)
		}
	})

	t.Run("configured marker missing", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CompletionMarker = "#"
		sp := openSpeller(t, "@", cfg)
		assert.False(t, sp.CompletionEnabled())
	})
}

func TestSuggestRecase(t *testing.T) {
	sp := openSpeller(t, "", DefaultConfig())

	tests := []struct {
		word   string
		value  string
		weight float64
	}{
		{"World", "World", 0},
		{"WORLD", "WORLD", 0},
		{"WROLD", "WORLD", 6},
		{"Wrold", "World", 6},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got := suggestAll(t, sp, tt.word, nil)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.value, got[0].Value)
			assert.Equal(t, tt.weight, got[0].Weight)
		})
	}
}

func TestSuggestPoolPolicy(t *testing.T) {
	want := suggestAll(t, openSpeller(t, "", DefaultConfig()), "wrold", nil)

	t.Run("grow", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.NodePoolSize = 1
		sp := openSpeller(t, "", cfg)
		assert.Equal(t, want, suggestAll(t, sp, "wrold", nil))
		assert.Equal(t, want, suggestAll(t, sp, "wrold", nil))
	})

	t.Run("strict", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.NodePoolSize = 1
		cfg.PoolPolicy = PoolStrict
		sp := openSpeller(t, "", cfg)

		for i := 0; i < 2; i++ {
			_, err := sp.Suggest(context.Background(), "wrold", nil)
			assert.ErrorIs(t, err, errs.ErrResourceExhausted)
		}
		ok, err := sp.IsCorrect("world")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestSuggestCancelled(t *testing.T) {
	sp := openSpeller(t, "", DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list, err := sp.Suggest(ctx, "wrold", nil)
	require.NoError(t, err)
	assert.Zero(t, list.Len())

	assert.NotEmpty(t, suggestAll(t, sp, "wrold", nil))
}

func TestSuggestConcurrent(t *testing.T) {
	sp := openSpeller(t, "", DefaultConfig())
	want := suggestAll(t, sp, "helo", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				ok, err := sp.IsCorrect("hello")
				assert.NoError(t, err)
				assert.True(t, ok)

				list, err := sp.Suggest(context.Background(), "helo", nil)
				if !assert.NoError(t, err) {
					return
				}
				got, err := list.All()
				assert.NoError(t, err)
				assert.Equal(t, want, got)
				list.Close()
			}
		}()
	}
	wg.Wait()
}

func TestSpellerClose(t *testing.T) {
	sp, err := Open(writeLexicon(t, "", testWords), DefaultConfig())
	require.NoError(t, err)

	list, err := sp.Suggest(context.Background(), "wrold", nil)
	require.NoError(t, err)

	require.NoError(t, sp.Close())
	require.NoError(t, sp.Close())
	assert.True(t, sp.Archive().Closed())
	assert.True(t, sp.Closed())

	_, err = sp.IsCorrect("world")
	assert.ErrorIs(t, err, errs.ErrEngineClosed)
	_, err = sp.Suggest(context.Background(), "world", nil)
	assert.ErrorIs(t, err, errs.ErrEngineClosed)

	// the list owns its values
	s, err := list.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "world", s.Value)
}

func TestSpellerArchiveClosed(t *testing.T) {
	a, err := lexicon.Open(writeLexicon(t, "", testWords))
	require.NoError(t, err)

	sp, err := FromArchive(a, DefaultConfig())
	require.NoError(t, err)
	other, err := FromArchive(a, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, a.Close())

	for _, s := range []*Speller{sp, other} {
		_, err = s.IsCorrect("world")
		assert.ErrorIs(t, err, errs.ErrEngineClosed)
		_, err = s.Suggest(context.Background(), "world", nil)
		assert.ErrorIs(t, err, errs.ErrEngineClosed)
		assert.NoError(t, s.Close())
	}

	_, err = FromArchive(a, DefaultConfig())
	assert.ErrorIs(t, err, errs.ErrEngineClosed)
}

func TestFromArchiveErrors(t *testing.T) {
	t.Run("nil archive", func(t *testing.T) {
		_, err := FromArchive(nil, DefaultConfig())
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.NodePoolSize = 0
		_, err := Open(writeLexicon(t, "", testWords), cfg)
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})

	t.Run("corrupt lexicon", func(t *testing.T) {
		path := writeLexicon(t, "", testWords)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		data[len(data)-1] ^= 0xff
		require.NoError(t, os.WriteFile(path, data, 0o644))

		_, err = Open(path, DefaultConfig())
		assert.ErrorIs(t, err, errs.ErrEngineUnavailable)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "none.wsl"), DefaultConfig())
		assert.ErrorIs(t, err, errs.ErrIO)
	})
}

func TestSuggestionList(t *testing.T) {
	list := newSuggestionList(rank([]Suggestion{
		{Value: "b", Weight: 1},
		{Value: "c", Weight: 0.5},
		{Value: "a", Weight: 1, Completed: CompletionTrue},
	}, 10))

	require.Equal(t, 3, list.Len())
	all, err := list.All()
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{
		{Value: "c", Weight: 0.5},
		{Value: "a", Weight: 1, Completed: CompletionTrue},
		{Value: "b", Weight: 1},
	}, all)

	for _, i := range []int{-1, 3} {
		_, err := list.Get(i)
		assert.ErrorIs(t, err, errs.ErrIndexOutOfRange)
	}

	require.NoError(t, list.Close())
	require.NoError(t, list.Close())
	assert.Equal(t, 3, list.Len())
	_, err = list.Get(0)
	assert.ErrorIs(t, err, errs.ErrEngineClosed)
	_, err = list.All()
	assert.ErrorIs(t, err, errs.ErrEngineClosed)
}
