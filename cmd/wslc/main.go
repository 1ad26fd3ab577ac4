/*
Command wslc compiles word lists into wordspell lexicons.

From a manifest naming the word list, metadata and error model:

	wslc -manifest en.toml

	# en.toml
	words = "en.txt"
	output = "en.wsl"

	[metadata]
	locale = "en"
	marker = "@"

	[metadata.errors]
	transposition = 1.0

	[metadata.errors.substitutions]
	"a>e" = 0.5

Or straight from a list with default metadata:

	wslc -words en.txt -o en.wsl -locale en -marker @

Word lists hold one word per line with an optional tab-separated weight.
Lines starting with # are skipped.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bastiangx/wordspell/internal/logger"
	"github.com/bastiangx/wordspell/pkg/lexicon"
	"github.com/charmbracelet/log"
)

func main() {
	manifestPath := flag.String("manifest", "", "Lexicon manifest (TOML)")
	wordsPath := flag.String("words", "", "Word list, one word per line")
	output := flag.String("o", "", "Output file (default: input name with .wsl)")
	locale := flag.String("locale", "", "Locale tag stored in the lexicon")
	marker := flag.String("marker", "", "Completion marker symbol")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	flag.Parse()

	if *debugMode {
		logger.Setup(true)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	m, err := manifest(*manifestPath, *wordsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	if *output != "" {
		m.Output = *output
	}
	if *locale != "" {
		m.Metadata.Locale = *locale
	}
	if *marker != "" {
		m.Metadata.Marker = *marker
	}

	if format, err := lexicon.DetectFileFormat(m.Words); err == nil && format != lexicon.FormatWordList {
		want, _ := lexicon.GetFormatInfo(lexicon.FormatWordList)
		log.Warnf("%s does not look like a word list (%s, expected %s)", m.Words, format, strings.Join(want.Extensions, " or "))
	}

	start := time.Now()
	n, err := lexicon.Compile(m)
	if err != nil {
		log.Fatalf("Compile failed: %v", err)
	}
	log.Infof("Compiled %d words into %s in %v", n, m.Output, time.Since(start).Round(time.Millisecond))
}

func manifest(manifestPath, wordsPath string) (*lexicon.Manifest, error) {
	switch {
	case manifestPath != "" && wordsPath != "":
		return nil, fmt.Errorf("use either -manifest or -words")
	case manifestPath != "":
		return lexicon.LoadManifest(manifestPath)
	case wordsPath != "":
		return &lexicon.Manifest{
			Words:  wordsPath,
			Output: strings.TrimSuffix(wordsPath, filepath.Ext(wordsPath)) + ".wsl",
			Metadata: lexicon.Metadata{
				Producer:   "wslc",
				ErrorModel: lexicon.DefaultErrorModel(),
			},
		}, nil
	}
	return nil, fmt.Errorf("missing -manifest or -words")
}
