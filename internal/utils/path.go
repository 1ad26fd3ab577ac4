package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// LexiconExt is the extension of compiled lexicons.
const LexiconExt = ".wsl"

// PathResolver finds lexicon files relative to the places the binary is
// usually run from.
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	// Resolve any symlinks to get the actual binary location
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  filepath.Dir(execPath),
		homeDir:        homeDir,
		configDir:      getConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: exec=%s, configDir=%s", execPath, pr.configDir)
	return pr, nil
}

// getConfigDir returns the appropriate config directory for the platform
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "wordspell")
		}
		return filepath.Join(homeDir, ".config", "wordspell")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "wordspell")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "wordspell")
	default:
		return filepath.Join(homeDir, ".config", "wordspell")
	}
}

// ResolveLexicon finds the lexicon named by userPath. A directory resolves
// to the first lexicon inside it. Candidates, in order:
// 1. userPath as given (absolute or relative to the working directory)
// 2. relative to the executable directory
// 3. the lexicons directory under the config dir
func (pr *PathResolver) ResolveLexicon(userPath string) (string, error) {
	for _, candidate := range pr.lexiconCandidates(userPath) {
		stat, err := os.Stat(candidate)
		if err != nil {
			log.Debugf("Lexicon candidate not found: %s", candidate)
			continue
		}
		if !stat.IsDir() {
			return candidate, nil
		}
		if found := listLexicons(candidate); len(found) > 0 {
			log.Debugf("Found lexicon %s in %s", found[0], candidate)
			return found[0], nil
		}
	}
	return "", fmt.Errorf("no lexicon found for %q: %w", userPath, os.ErrNotExist)
}

func (pr *PathResolver) lexiconCandidates(userPath string) []string {
	if filepath.IsAbs(userPath) {
		return []string{userPath}
	}
	candidates := []string{userPath}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, userPath))
	}
	return append(candidates,
		filepath.Join(pr.executableDir, userPath),
		filepath.Join(pr.configDir, "lexicons", userPath),
	)
}

// listLexicons returns the compiled lexicons in dir, sorted by name.
func listLexicons(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+LexiconExt))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// GetConfigDir returns the config directory
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}

// GetExecutableDir returns the directory containing the executable
func (pr *PathResolver) GetExecutableDir() string {
	return pr.executableDir
}

// GetRuntimeInfo returns debug information about the current runtime environment
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()

	info := map[string]string{
		"executable_path": pr.executablePath,
		"executable_dir":  pr.executableDir,
		"current_dir":     cwd,
		"home_dir":        pr.homeDir,
		"config_dir":      pr.configDir,
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
	}
	for _, envVar := range []string{"XDG_CONFIG_HOME", "APPDATA"} {
		if value := os.Getenv(envVar); value != "" {
			info["env_"+strings.ToLower(envVar)] = value
		}
	}
	return info
}
