package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !strings.Contains(dir, "medassist") {
		t.Errorf("ConfigDir should contain 'medassist': got %s", dir)
	}
}

func TestXDGOverrides(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG variables are not used on Windows")
	}
	cfg := t.TempDir()
	data := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfg)
	t.Setenv("XDG_DATA_HOME", data)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigDir", ConfigDir(), filepath.Join(cfg, "medassist")},
		{"ConfigFile", ConfigFile(), filepath.Join(cfg, "medassist", "config.yaml")},
		{"CredentialsFile", CredentialsFile(), filepath.Join(cfg, "medassist", "credentials.json")},
		{"UserFlowsDir", UserFlowsDir(), filepath.Join(cfg, "medassist", "flows")},
		{"DataDir", DataDir(), filepath.Join(data, "medassist")},
		{"DatabaseFile", DatabaseFile(), filepath.Join(data, "medassist", "documents.db")},
		{"InstalledFlowsDir", InstalledFlowsDir(), filepath.Join(data, "medassist", "flows")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}

func TestFlowsDirsOnlyExisting(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG variables are not used on Windows")
	}
	cfg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfg)
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if dirs := FlowsDirs(); containsPrefix(dirs, cfg) {
		t.Fatalf("FlowsDirs included a missing directory: %v", dirs)
	}

	if err := os.MkdirAll(UserFlowsDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	dirs := FlowsDirs()
	if !containsPrefix(dirs, cfg) {
		t.Errorf("FlowsDirs = %v, want user flows dir included", dirs)
	}
}

func TestProjectFlowsDir(t *testing.T) {
	dir := ProjectFlowsDir()
	if !strings.HasSuffix(dir, filepath.Join(".medassist", "flows")) {
		t.Errorf("ProjectFlowsDir should end with .medassist/flows: got %s", dir)
	}
}

func containsPrefix(dirs []string, prefix string) bool {
	for _, d := range dirs {
		if strings.HasPrefix(d, prefix) {
			return true
		}
	}
	return false
}
