// Package paths resolves configuration and data directory locations and the
// database file inside the data directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

// DefaultDataDirName is the CWD-relative data directory.
const DefaultDataDirName = ".formulary-db"

// appDirName is the per-user directory name under the platform base dirs.
const appDirName = "formulary"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "FORMULARY_CONFIG_DIR"
	EnvDataDir   = "FORMULARY_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// baseDir describes where one kind of per-user directory lives on linux.
type baseDir struct {
	xdgEnv   string
	fallback []string // relative to the home directory
}

var (
	configBase = baseDir{xdgEnv: "XDG_CONFIG_HOME", fallback: []string{".config"}}
	dataBase   = baseDir{xdgEnv: "XDG_DATA_HOME", fallback: []string{".local", "share"}}
)

// appDir returns the formulary directory under b. On macOS and Windows both
// kinds share os.UserConfigDir.
func (b baseDir) appDir() (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
	if xdg := os.Getenv(b.xdgEnv); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, b.fallback...)
	return filepath.Join(append(parts, appDirName)...), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/formulary (fallback ~/.config/formulary)
// macOS:   ~/Library/Application Support/formulary
// Windows: %APPDATA%/formulary
func DefaultConfigDir() (string, error) {
	return configBase.appDir()
}

// DefaultDataDir returns the platform-specific per-user data directory.
//
// Linux:   $XDG_DATA_HOME/formulary (fallback ~/.local/share/formulary)
// macOS and Windows: same as DefaultConfigDir.
func DefaultDataDir() (string, error) {
	return dataBase.appDir()
}

// firstAbs returns the absolute form of the first non-empty candidate.
func firstAbs(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c != "" {
			abs, err := filepath.Abs(c)
			return abs, true, err
		}
	}
	return "", false, nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > FORMULARY_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstAbs(flag, os.Getenv(EnvConfigDir)); ok {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > FORMULARY_DATA_DIR env > $(CWD)/.formulary-db.
// The platform DefaultDataDir is used only by init --user.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, configYAMLValue, os.Getenv(EnvDataDir)); ok {
		return dir, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// DatabasePath returns the SQLite database file inside dataDir.
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, types.DatabaseFile)
}
