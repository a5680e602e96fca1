package config

import (
	"os"
	"path/filepath"
)

// DefaultRoot returns the default shared root based on the host OS. The
// root is usually a synced or network directory supplied explicitly, so
// these are fallbacks for local use.
func DefaultRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./courier"
	}

	// XDG (Linux) override
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "courier")
	}

	// macOS: ~/Library/Application Support/Courier
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "Courier")
	}

	// Windows: %USERPROFILE%/AppData/Local/Courier
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "Courier")
	}

	// Fallback: ~/.courier
	return filepath.Join(homeDir, ".courier")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
