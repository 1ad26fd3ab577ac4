// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the wordspell spell checking server and CLI [DBG] application.

wordspell checks words against a compiled lexicon (see cmd/wslc) and
suggests ranked corrections. With the text around the cursor it also
completes the word being typed.

# Usage

Start the IPC server on stdin/stdout:

	wordspell -lexicon en.wsl

Use msgpack instead of line-delimited JSON, with debug logs on stderr:

	wordspell -lexicon en.wsl -msgpack -d

Run in CLI mode for interactive testing:

	wordspell -lexicon en.wsl -c -limit 5

Share learned words between processes through Redis:

	wordspell -lexicon en.wsl -redis redis://localhost:6379/0

# Configuration

Options are read from a TOML (or YAML) file, created with defaults on first
run under the user config dir:

	[speller]
	lexicon = "en.wsl"
	n_best = 10
	max_weight = 10000.0

	[server]
	max_limit = 64
	timeout_ms = 250

Flags override the file. See pkg/config for every key.

# IPC Protocol

See pkg/server. A short session:

	{"id": "1", "command": "check", "word": "wrold"}
	{"id": "1", "word": "wrold", "ok": false, "t": 9}
	{"id": "2", "command": "suggest", "word": "wrold"}
	{"id": "2", "word": "wrold", "s": [{"w": "world", "wt": 6, "c": "unknown", "r": 1}], "n": 1, "t": 122}

# Command Line Flags

	-lexicon string
	    Compiled lexicon file or a directory holding one
	-config string
	    Config file (default: user config dir)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-msgpack
	    Speak msgpack instead of JSON lines
	-limit int
	    Number of suggestions to show (default from config)
	-redis string
	    redis:// URL for the shared user dictionary
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/wordspell/internal/cli"
	"github.com/bastiangx/wordspell/internal/logger"
	"github.com/bastiangx/wordspell/internal/utils"
	"github.com/bastiangx/wordspell/pkg/config"
	"github.com/bastiangx/wordspell/pkg/server"
	"github.com/bastiangx/wordspell/pkg/speller"
	"github.com/bastiangx/wordspell/pkg/userdict"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0-beta"
	AppName = "wordspell"
	gh      = "https://github.com/bastiangx/wordspell"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cleanup()
		os.Exit(0)
	}()
}

func showVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ wordspell ] Spell checking and word completion over IPC")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// main wires config, lexicon and user dictionary, then hands over to the
// server or the CLI.
func main() {
	defaults := config.DefaultConfig()

	version := flag.Bool("version", false, "Show current version")
	lexiconPath := flag.String("lexicon", "", "Compiled lexicon file or directory (default from config)")
	configPath := flag.String("config", "", "Config file (TOML or YAML)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	msgpackMode := flag.Bool("msgpack", false, "Use msgpack instead of JSON lines for IPC")
	limit := flag.Int("limit", 0, fmt.Sprintf("Number of suggestions to show (default %d)", defaults.CLI.DefaultLimit))
	redisURL := flag.String("redis", "", "redis:// URL for the shared user dictionary")

	flag.Parse()

	if *version {
		showVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	appConfig, usedConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedConfig))

	spellerConfig, err := appConfig.SpellerConfig()
	if err != nil {
		log.Fatalf("Invalid speller config: %v", err)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	for k, v := range pathResolver.GetRuntimeInfo() {
		log.Debug("runtime", k, v)
	}

	requested := appConfig.Speller.Lexicon
	if *lexiconPath != "" {
		requested = *lexiconPath
	}
	resolved, err := pathResolver.ResolveLexicon(requested)
	if err != nil {
		log.Fatalf("Failed to resolve lexicon: %v", err)
	}
	log.Debugf("Using lexicon at: %s", resolved)

	sp, err := speller.Open(resolved, spellerConfig)
	if err != nil {
		log.Fatalf("Failed to open lexicon: %v", err)
	}

	if *cliMode {
		sigHandler(func() { sp.Close() })
		n := appConfig.CLI.DefaultLimit
		if *limit > 0 {
			n = *limit
		}
		handler := cli.NewInputHandler(sp, n, appConfig.CLI.ShowWeights)
		if err := handler.Start(); err != nil {
			log.Errorf("CLI error: %v", err)
		}
		sp.Close()
		return
	}

	dict := openUserDict(appConfig, *redisURL)
	cleanup := func() {
		sp.Close()
		dict.Close()
	}
	sigHandler(cleanup)

	if *limit > 0 {
		appConfig.Server.MaxLimit = *limit
	}
	srv := server.NewServer(sp, dict, appConfig)
	srv.UseMsgpack(*msgpackMode)

	showStartupInfo(resolved, sp)

	err = srv.Start()
	cleanup()
	if err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// openUserDict picks Redis when a URL is given by flag or config, and falls
// back to an in-memory dictionary.
func openUserDict(cfg *config.Config, flagURL string) userdict.Store {
	url := cfg.Server.RedisURL
	if flagURL != "" {
		url = flagURL
	}
	if url == "" {
		return userdict.NewMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store, err := userdict.DialRedis(ctx, url, cfg.Server.RedisKey)
	if err != nil {
		log.Warnf("User dictionary unavailable, keeping learned words in memory: %v", err)
		return userdict.NewMemory()
	}
	return store
}

// showStartupInfo prints basic info about the init process on stderr.
func showStartupInfo(lexiconPath string, sp *speller.Speller) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	meta := sp.Archive().Metadata()
	log.Infof("wordspell %s, pid [ %d ]", Version, os.Getpid())
	log.Infof("lexicon: ( %s ) locale %q", lexiconPath, meta.Locale)
	log.Infof("completion: %v", sp.CompletionEnabled())
	log.Info("status: ready")
}
