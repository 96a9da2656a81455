// Package paths resolves where jembatan keeps its configuration and its
// local fallback database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user configuration and data directories.
const AppName = "jembatan"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "JEMBATAN_CONFIG_DIR"
	EnvDataDir   = "JEMBATAN_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/jembatan (fallback ~/.config/jembatan)
// macOS:   ~/Library/Application Support/jembatan
// Windows: %APPDATA%/jembatan
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/jembatan (fallback ~/.local/share/jembatan)
// macOS:   ~/Library/Application Support/jembatan
// Windows: %APPDATA%/jembatan
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeFallback string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeFallback, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > JEMBATAN_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence
// chain: flag > data_dir from config.yaml > JEMBATAN_DATA_DIR env >
// DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, candidate := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if candidate != "" {
			return filepath.Abs(candidate)
		}
	}
	return DefaultDataDir()
}
