package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Backend != BackendProvider || cfg.Model != def.Model {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Provider.Type != catwalk.TypeGoogle {
		t.Errorf("default provider type = %q", cfg.Provider.Type)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("retries must be off by default, got %d", cfg.MaxRetries)
	}
	if !strings.Contains(cfg.DatabasePath, "medassist") {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
backend: ollama
ollama:
  host: http://gpu-box:11434
  model: qwen2.5:7b
timeout: 45s
max_retries: 2
retry_base: 250ms
flows_dirs:
  - /srv/flows
log:
  level: debug
  format: json
server:
  addr: 127.0.0.1:9090
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend != BackendOllama || cfg.Ollama.Host != "http://gpu-box:11434" || cfg.Ollama.Model != "qwen2.5:7b" {
		t.Errorf("ollama settings = %+v", cfg.Ollama)
	}
	if cfg.Timeout != 45*time.Second || cfg.RetryBase != 250*time.Millisecond || cfg.MaxRetries != 2 {
		t.Errorf("timing = %v %v %d", cfg.Timeout, cfg.RetryBase, cfg.MaxRetries)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if dirs := cfg.FlowDirectories(); len(dirs) != 1 || dirs[0] != "/srv/flows" {
		t.Errorf("FlowDirectories = %v", dirs)
	}
	// Unset keys keep their defaults.
	if cfg.Server.ShutdownTimeout != Default().Server.ShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "model: gemini-1.5-pro\n")
	t.Setenv("MEDASSIST_MODEL", "gemini-2.5-flash")
	t.Setenv("MEDASSIST_TIMEOUT", "5s")
	t.Setenv("MEDASSIST_MAX_RETRIES", "3")
	t.Setenv("MEDASSIST_LOG_LEVEL", "warn")
	t.Setenv("MEDASSIST_ADDR", ":7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "gemini-2.5-flash" {
		t.Errorf("Model = %s", cfg.Model)
	}
	if cfg.Timeout != 5*time.Second || cfg.MaxRetries != 3 {
		t.Errorf("Timeout = %v, MaxRetries = %d", cfg.Timeout, cfg.MaxRetries)
	}
	if cfg.Log.Level != "warn" || cfg.Server.Addr != ":7070" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad yaml", content: "backend: [unterminated"},
		{name: "unknown backend", content: "backend: carrier-pigeon"},
		{name: "bad duration", content: "timeout: soon"},
		{name: "bad env duration", env: map[string]string{"MEDASSIST_TIMEOUT": "forever"}},
		{name: "bad env retries", env: map[string]string{"MEDASSIST_MAX_RETRIES": "-1"}},
		{name: "negative timeout", content: "timeout: -1s"},
		{name: "unknown provider", env: map[string]string{"MEDASSIST_PROVIDER": "no-such-provider"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfiguredModels(t *testing.T) {
	cfg := Default()
	cfg.Provider.Models = []catwalk.Model{{ID: "m1", Name: "Model One"}}

	models := ConfiguredModels(cfg)
	if len(models) != 1 || models[0].ID != "m1" {
		t.Errorf("models = %+v", models)
	}
}
