// Package paths provides directory paths for medassist.
//
// Flow lookup order (first found wins):
//  1. ./.medassist/flows (project flows)
//  2. ~/.config/medassist/flows (user flows)
//  3. ~/.local/share/medassist/flows (installed flows)
//
// XDG_CONFIG_HOME and XDG_DATA_HOME are honored on Unix.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const appName = "medassist"

var (
	// localDevMode is set by SetLocalDevMode to force local directory paths
	localDevMode     bool
	localDevModeOnce sync.Once
)

// SetLocalDevMode switches config and data to ./.config/medassist and
// ./.local/share/medassist. Must be called before any directory functions
// are used.
func SetLocalDevMode() {
	localDevModeOnce.Do(func() {
		localDevMode = true
	})
}

// IsLocalDevMode returns true if local dev mode is enabled via SetLocalDevMode.
func IsLocalDevMode() bool {
	return localDevMode
}

// DataDir returns the data directory.
//
// Local dev mode: ./.local/share/medassist
// Unix: $XDG_DATA_HOME/medassist or ~/.local/share/medassist
// Windows: %LOCALAPPDATA%\medassist
func DataDir() string {
	if localDevMode {
		wd, _ := os.Getwd()
		return filepath.Join(wd, ".local", "share", appName)
	}
	if runtime.GOOS == "windows" {
		return windowsDir()
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// ConfigDir returns the config directory.
//
// Local dev mode: ./.config/medassist
// Unix: $XDG_CONFIG_HOME/medassist or ~/.config/medassist
// Windows: %LOCALAPPDATA%\medassist
func ConfigDir() string {
	if localDevMode {
		wd, _ := os.Getwd()
		return filepath.Join(wd, ".config", appName)
	}
	if runtime.GOOS == "windows" {
		return windowsDir()
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func windowsDir() string {
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		home, _ := os.UserHomeDir()
		localAppData = filepath.Join(home, "AppData", "Local")
	}
	return filepath.Join(localAppData, appName)
}

// ConfigFile returns the path to the main config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// CredentialsFile returns the path to the stored API keys.
func CredentialsFile() string {
	return filepath.Join(ConfigDir(), "credentials.json")
}

// DatabaseFile returns the path to the local document store.
func DatabaseFile() string {
	return filepath.Join(DataDir(), "documents.db")
}

// UserFlowsDir returns the directory for user-created flows.
func UserFlowsDir() string {
	return filepath.Join(ConfigDir(), "flows")
}

// InstalledFlowsDir returns the directory for installed flow packages.
func InstalledFlowsDir() string {
	return filepath.Join(DataDir(), "flows")
}

// ProjectFlowsDir returns ./.medassist/flows, or "" without a working
// directory.
func ProjectFlowsDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(wd, "."+appName, "flows")
}

// FlowsDirs returns every flow directory in lookup priority order. Only
// directories that exist are included.
func FlowsDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, dir := range []string{ProjectFlowsDir(), UserFlowsDir(), InstalledFlowsDir()} {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
