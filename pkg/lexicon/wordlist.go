package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// ReadWordList adds every entry of a word list to b and returns how many
// entries were read.
//
// One entry per line, "word" or "word<TAB>weight". Blank lines and lines
// starting with # are skipped. Lists without weights are taken as ordered by
// frequency: the n-th entry gets weight ln(n).
func (b *Builder) ReadWordList(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum, entries := 0, 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries++

		parts := strings.Split(line, "\t")
		word := strings.TrimSpace(parts[0])
		weight := math.Log(float64(entries))

		if len(parts) > 1 {
			w, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				return entries, fmt.Errorf("line %d: invalid weight %q: %w", lineNum, parts[1], err)
			}
			weight = w
		}

		if err := b.Add(word, weight); err != nil {
			return entries, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("error reading word list: %w", err)
	}
	return entries, nil
}

// Manifest describes how to compile a lexicon.
type Manifest struct {
	// Words is the word list path, relative to the manifest.
	Words string `toml:"words"`
	// Output is the compiled lexicon path, relative to the manifest.
	Output   string   `toml:"output"`
	Metadata Metadata `toml:"metadata"`
}

// LoadManifest reads a TOML manifest. Paths inside it are resolved against
// the manifest's directory. Keys missing from [metadata.errors] keep their
// DefaultErrorModel values.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{Metadata: Metadata{ErrorModel: DefaultErrorModel()}}
	meta, err := toml.DecodeFile(path, m)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Warnf("Manifest %s has unknown keys: %v", path, undecoded)
	}
	if m.Words == "" {
		return nil, fmt.Errorf("manifest %s: missing 'words'", path)
	}

	dir := filepath.Dir(path)
	m.Words = resolve(dir, m.Words)
	if m.Output == "" {
		m.Output = strings.TrimSuffix(m.Words, filepath.Ext(m.Words)) + ".wsl"
	} else {
		m.Output = resolve(dir, m.Output)
	}
	return m, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Compile reads the manifest's word list and writes the compiled lexicon to
// its output path. It returns the number of distinct words written.
func Compile(m *Manifest) (int, error) {
	f, err := os.Open(m.Words)
	if err != nil {
		return 0, fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()

	b := NewBuilder()
	if _, err := b.ReadWordList(f); err != nil {
		return 0, fmt.Errorf("%s: %w", m.Words, err)
	}
	if err := b.WriteFile(m.Output, m.Metadata); err != nil {
		return 0, err
	}
	log.Debugf("Wrote %s (%d words)", m.Output, b.Len())
	return b.Len(), nil
}
