package userdict

import (
	"context"
	"sync"
	"testing"

	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"Hello", "hello", false},
		{"  ÅSA ", "åsa", false},
		{"", "", true},
		{"   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	defer s.Close()

	require.NoError(t, s.Add(ctx, "Wordspell"))
	require.NoError(t, s.Add(ctx, "gofmt"))
	require.NoError(t, s.Add(ctx, "GOFMT"))
	assert.ErrorIs(t, s.Add(ctx, " "), errs.ErrInvalidInput)

	ok, err := s.Contains(ctx, "WORDSPELL")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Contains(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gofmt", "wordspell"}, all)

	require.NoError(t, s.Remove(ctx, "GoFmt"))
	require.NoError(t, s.Remove(ctx, "missing"))
	all, err = s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wordspell"}, all)
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	var s Store = NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, s.Add(ctx, "word"))
				_, err := s.Contains(ctx, "word")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"word"}, all)
}

func TestDialRedisInvalidURL(t *testing.T) {
	_, err := DialRedis(context.Background(), "not-a-url", "")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestNewRedisDefaultKey(t *testing.T) {
	s := NewRedis(nil, "")
	assert.Equal(t, DefaultKey, s.key)
}
