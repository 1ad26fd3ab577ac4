package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/bastiangx/wordspell/pkg/speller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultSpellerConfig(t *testing.T) {
	got, err := DefaultConfig().SpellerConfig()
	require.NoError(t, err)
	assert.Equal(t, speller.DefaultConfig(), got)
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "config.toml", `
[speller]
n_best = 5
beam = 15.5
pool_policy = "strict"
completion_marker = "@"

[speller.reweight]
mid = 2.0

[server]
timeout_ms = 100
`},
		{"yaml", "config.yaml", `
speller:
  n_best: 5
  beam: 15.5
  pool_policy: strict
  completion_marker: "@"
  reweight:
    mid: 2.0
server:
  timeout_ms: 100
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, 5, cfg.Speller.NBest)
			assert.Equal(t, 100, cfg.Server.TimeoutMs)
			// untouched keys keep defaults
			assert.Equal(t, 10000.0, cfg.Speller.MaxWeight)
			assert.Equal(t, 64, cfg.Server.MaxLimit)
			assert.True(t, cfg.Speller.Reweight.Enabled)
			assert.Equal(t, 10.0, cfg.Speller.Reweight.Start)

			sc, err := cfg.SpellerConfig()
			require.NoError(t, err)
			require.NotNil(t, sc.Beam)
			assert.Equal(t, 15.5, *sc.Beam)
			assert.Equal(t, speller.PoolStrict, sc.PoolPolicy)
			assert.Equal(t, "@", sc.CompletionMarker)
			assert.Equal(t, &speller.Reweight{StartPenalty: 10, MidPenalty: 2, EndPenalty: 10}, sc.Reweight)
		})
	}
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := writeFile(t, "config.toml", `
[speller]
n_best = "lots"
max_weight = 50.0
recase = false

[cli]
default_limit = 3
show_weights = "yes"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Speller.NBest)
	assert.Equal(t, 50.0, cfg.Speller.MaxWeight)
	assert.False(t, cfg.Speller.Recase)
	assert.Equal(t, 3, cfg.CLI.DefaultLimit)
	assert.True(t, cfg.CLI.ShowWeights)
}

func TestLoadConfigBroken(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.toml", "[speller\nn_best = "))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestSpellerConfigConversion(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		check  func(*testing.T, speller.Config)
		err    bool
	}{
		{
			name:   "zero beam is absent",
			mutate: func(c *Config) { c.Speller.Beam = 0 },
			check:  func(t *testing.T, sc speller.Config) { assert.Nil(t, sc.Beam) },
		},
		{
			name:   "reweight disabled",
			mutate: func(c *Config) { c.Speller.Reweight.Enabled = false },
			check:  func(t *testing.T, sc speller.Config) { assert.Nil(t, sc.Reweight) },
		},
		{
			name:   "empty marker",
			mutate: func(c *Config) { c.Speller.CompletionMarker = "" },
			check:  func(t *testing.T, sc speller.Config) { assert.Empty(t, sc.CompletionMarker) },
		},
		{
			name:   "unknown pool policy",
			mutate: func(c *Config) { c.Speller.PoolPolicy = "shrink" },
			err:    true,
		},
		{
			name:   "negative n best",
			mutate: func(c *Config) { c.Speller.NBest = -1 },
			err:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			sc, err := cfg.SpellerConfig()
			if tt.err {
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			tt.check(t, sc)
		})
	}
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	for _, name := range []string{"config.toml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg, err := InitConfig(path)
			require.NoError(t, err)
			assert.Equal(t, DefaultConfig(), cfg)
			assert.FileExists(t, path)

			again, err := InitConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, again)
		})
	}
}

func TestLoadConfigWithPriority(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeFile(t, "custom.toml", "[cli]\ndefault_limit = 2\n")
	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 2, cfg.CLI.DefaultLimit)

	cfg, used, err = LoadConfigWithPriority(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.NotEqual(t, path, used)
	assert.Equal(t, DefaultConfig().CLI, cfg.CLI)
}
