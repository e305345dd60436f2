package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

const appName = "wordcheck"

// PathResolver finds the config directory and lexicon files relative to the
// binary, the working directory and the user's config directory.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver creates a resolver for the running executable.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}
	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		homeDir:       homeDir,
		configDir:     configDirFor(runtime.GOOS, homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

func configDirFor(goos, homeDir string) string {
	switch goos {
	case "linux", "freebsd", "openbsd":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		return filepath.Join(homeDir, ".config", appName)
	case "darwin":
		return filepath.Join(homeDir, ".config", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		return filepath.Join(homeDir, "."+appName)
	}
}

// ConfigDir is where config.toml lives by default.
func (pr *PathResolver) ConfigDir() string {
	return pr.configDir
}

// ConfigPath returns the default path of filename inside the config dir.
func (pr *PathResolver) ConfigPath(filename string) string {
	return filepath.Join(pr.configDir, filename)
}

// Candidates lists the places a relative path is looked up, in order.
func (pr *PathResolver) Candidates(path string) []string {
	if path == "" {
		return nil
	}
	if filepath.IsAbs(path) {
		return []string{path}
	}
	out := []string{}
	if cwd, err := os.Getwd(); err == nil {
		out = append(out, filepath.Join(cwd, path))
	}
	return append(out,
		filepath.Join(pr.executableDir, path),
		filepath.Join(pr.configDir, path),
	)
}

// FindFile returns the first existing candidate for path.
func (pr *PathResolver) FindFile(path string) (string, error) {
	for _, candidate := range pr.Candidates(path) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			log.Debugf("Resolved %s to %s", path, candidate)
			return candidate, nil
		}
	}
	return "", fmt.Errorf("file %q not found in %v", path, pr.Candidates(path))
}
