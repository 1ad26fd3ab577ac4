package lexicon

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// FileFormat represents the lexicon-related file kinds
type FileFormat int

const (
	FormatUnknown  FileFormat = iota
	FormatCompiled            // Compiled .wsl lexicon
	FormatWordList            // Plain text word list
	FormatManifest            // TOML compile manifest
)

// FormatInfo contains metadata about a file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatCompiled: {
		Format:      FormatCompiled,
		Description: "Compiled Lexicon",
		Extensions:  []string{".wsl"},
		MinSize:     headerSize,
	},
	FormatWordList: {
		Format:      FormatWordList,
		Description: "Word List",
		Extensions:  []string{".txt", ".tsv"},
		MinSize:     1,
	},
	FormatManifest: {
		Format:      FormatManifest,
		Description: "Lexicon Manifest",
		Extensions:  []string{".toml"},
		MinSize:     1,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "Unknown"
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, validExtension := range formatInfo.Extensions {
		if ext == validExtension {
			validExt = true
			break
		}
	}
	if !validExt {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	switch expectedFormat {
	case FormatCompiled:
		return validateCompiledFormat(filename)
	case FormatWordList:
		return validateWordListFormat(filename)
	case FormatManifest:
		return validateManifestFormat(filename)
	}

	return nil
}

// validateCompiledFormat reads and checks the header only
func validateCompiledFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(file, buf); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	h, err := parseHeader(buf)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	if h.version != Version {
		return fmt.Errorf("%s: unsupported format version %d", filename, h.version)
	}

	log.Debugf("Compiled lexicon %s validated: %d states", filename, h.stateCount)
	return nil
}

func validateWordListFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	buffer := make([]byte, 1024)
	if _, err := file.Read(buffer); err != nil {
		return fmt.Errorf("failed to read from word list %s: %w", filename, err)
	}

	log.Debugf("Word list %s validated", filename)
	return nil
}

func validateManifestFormat(filename string) error {
	var probe map[string]any
	if _, err := toml.DecodeFile(filename, &probe); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", filename, err)
	}
	if _, ok := probe["words"]; !ok {
		return fmt.Errorf("manifest %s has no 'words' key", filename)
	}
	return nil
}

// DetectFileFormat attempts to detect the format of a file
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	for _, format := range []FileFormat{FormatCompiled, FormatWordList, FormatManifest} {
		for _, e := range supportedFormats[format].Extensions {
			if e != ext {
				continue
			}
			if err := ValidateFileFormat(filename, format); err != nil {
				return FormatUnknown, err
			}
			return format, nil
		}
	}

	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
