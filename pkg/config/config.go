/*
Package config manages the TOML (or YAML) config for wordspell.

	[speller]
	lexicon = "en.wsl"
	n_best = 10
	max_weight = 10000.0
	beam = 0.0             # <= 0 disables beam pruning
	node_pool_size = 128
	pool_policy = "grow"   # or "strict"
	recase = true
	completion_marker = "" # empty uses the lexicon's marker

	[speller.reweight]
	enabled = true
	start = 10.0
	mid = 5.0
	end = 10.0

	[server]
	max_limit = 64
	timeout_ms = 250
	cache_size = 512       # 0 disables the suggest cache
	redis_url = ""

	[cli]
	default_limit = 8
	show_weights = true

A file ending in .yaml or .yml is read as YAML with the same keys.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bastiangx/wordspell/internal/utils"
	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/bastiangx/wordspell/pkg/speller"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Speller SpellerConfig `toml:"speller" yaml:"speller"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	CLI     CliConfig     `toml:"cli" yaml:"cli"`
}

// SpellerConfig holds the lexicon and search options.
type SpellerConfig struct {
	Lexicon          string         `toml:"lexicon" yaml:"lexicon"`
	NBest            int            `toml:"n_best" yaml:"n_best"`
	MaxWeight        float64        `toml:"max_weight" yaml:"max_weight"`
	Beam             float64        `toml:"beam" yaml:"beam"`
	NodePoolSize     int            `toml:"node_pool_size" yaml:"node_pool_size"`
	PoolPolicy       string         `toml:"pool_policy" yaml:"pool_policy"`
	Recase           bool           `toml:"recase" yaml:"recase"`
	CompletionMarker string         `toml:"completion_marker" yaml:"completion_marker"`
	Reweight         ReweightConfig `toml:"reweight" yaml:"reweight"`
}

// ReweightConfig holds the positional edit penalties.
type ReweightConfig struct {
	Enabled bool    `toml:"enabled" yaml:"enabled"`
	Start   float64 `toml:"start" yaml:"start"`
	Mid     float64 `toml:"mid" yaml:"mid"`
	End     float64 `toml:"end" yaml:"end"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit  int    `toml:"max_limit" yaml:"max_limit"`
	TimeoutMs int    `toml:"timeout_ms" yaml:"timeout_ms"`
	CacheSize int    `toml:"cache_size" yaml:"cache_size"`
	RedisURL  string `toml:"redis_url" yaml:"redis_url"`
	RedisKey  string `toml:"redis_key" yaml:"redis_key"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int  `toml:"default_limit" yaml:"default_limit"`
	ShowWeights  bool `toml:"show_weights" yaml:"show_weights"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	rw := speller.DefaultReweight()
	sc := speller.DefaultConfig()
	return &Config{
		Speller: SpellerConfig{
			Lexicon:      "en.wsl",
			NBest:        sc.NBest,
			MaxWeight:    sc.MaxWeight,
			NodePoolSize: sc.NodePoolSize,
			PoolPolicy:   sc.PoolPolicy.String(),
			Recase:       sc.Recase,
			Reweight: ReweightConfig{
				Enabled: true,
				Start:   rw.StartPenalty,
				Mid:     rw.MidPenalty,
				End:     rw.EndPenalty,
			},
		},
		Server: ServerConfig{
			MaxLimit:  64,
			TimeoutMs: 250,
			CacheSize: 512,
		},
		CLI: CliConfig{
			DefaultLimit: 8,
			ShowWeights:  true,
		},
	}
}

// SpellerConfig converts the file form into a validated speller.Config.
func (c *Config) SpellerConfig() (speller.Config, error) {
	s := c.Speller
	out := speller.Config{
		NBest:            s.NBest,
		MaxWeight:        s.MaxWeight,
		NodePoolSize:     s.NodePoolSize,
		Recase:           s.Recase,
		CompletionMarker: s.CompletionMarker,
	}
	if s.Beam > 0 {
		out.Beam = speller.Float(s.Beam)
	}
	if s.Reweight.Enabled {
		out.Reweight = &speller.Reweight{
			StartPenalty: s.Reweight.Start,
			MidPenalty:   s.Reweight.Mid,
			EndPenalty:   s.Reweight.End,
		}
	}
	switch s.PoolPolicy {
	case "", "grow":
		out.PoolPolicy = speller.PoolGrow
	case "strict":
		out.PoolPolicy = speller.PoolStrict
	default:
		return speller.Config{}, fmt.Errorf("%w: unknown pool_policy %q", errs.ErrInvalidInput, s.PoolPolicy)
	}
	if err := out.Validate(); err != nil {
		return speller.Config{}, err
	}
	return out, nil
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/wordspell
// 2. ~/Library/Application Support/wordspell (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "wordspell")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "wordspell")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from the -config flag
// 2. Default path: [UserConfigDir]/wordspell/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML or YAML file. Keys missing from the file
// keep their defaults; a file that does not decode cleanly is recovered
// key by key.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadConfigFile(configPath, config); err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value from a config that failed to decode.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "speller"); ok {
		extractSpellerConfig(section, &config.Speller)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractSpellerConfig(data map[string]any, s *SpellerConfig) {
	if val, ok := utils.ExtractString(data, "lexicon"); ok {
		s.Lexicon = val
	}
	if val, ok := utils.ExtractInt64(data, "n_best"); ok {
		s.NBest = val
	}
	if val, ok := utils.ExtractFloat(data, "max_weight"); ok {
		s.MaxWeight = val
	}
	if val, ok := utils.ExtractFloat(data, "beam"); ok {
		s.Beam = val
	}
	if val, ok := utils.ExtractInt64(data, "node_pool_size"); ok {
		s.NodePoolSize = val
	}
	if val, ok := utils.ExtractString(data, "pool_policy"); ok {
		s.PoolPolicy = val
	}
	if val, ok := utils.ExtractBool(data, "recase"); ok {
		s.Recase = val
	}
	if val, ok := utils.ExtractString(data, "completion_marker"); ok {
		s.CompletionMarker = val
	}
	if rw, ok := utils.ExtractSection(data, "reweight"); ok {
		if val, ok := utils.ExtractBool(rw, "enabled"); ok {
			s.Reweight.Enabled = val
		}
		if val, ok := utils.ExtractFloat(rw, "start"); ok {
			s.Reweight.Start = val
		}
		if val, ok := utils.ExtractFloat(rw, "mid"); ok {
			s.Reweight.Mid = val
		}
		if val, ok := utils.ExtractFloat(rw, "end"); ok {
			s.Reweight.End = val
		}
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		server.TimeoutMs = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		server.CacheSize = val
	}
	if val, ok := utils.ExtractString(data, "redis_url"); ok {
		server.RedisURL = val
	}
	if val, ok := utils.ExtractString(data, "redis_key"); ok {
		server.RedisKey = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractBool(data, "show_weights"); ok {
		cli.ShowWeights = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML or YAML file, by extension.
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveConfigFile(config, configPath)
}
