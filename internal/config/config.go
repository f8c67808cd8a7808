package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"gopkg.in/yaml.v3"

	"github.com/medportal/medassist/internal/paths"
)

// Model backends.
const (
	BackendProvider = "provider" // hosted model through catwalk + fantasy
	BackendOllama   = "ollama"   // local Ollama server
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEDASSIST_"

// Config represents the medassist configuration.
type Config struct {
	Backend  string           `yaml:"backend"`
	Model    string           `yaml:"model"`
	Provider catwalk.Provider `yaml:"provider"`
	Ollama   OllamaConfig     `yaml:"ollama"`

	// Timeout bounds each model call. Zero leaves it to the caller.
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"max_retries"`
	RetryBase  time.Duration `yaml:"retry_base"`

	DatabasePath string   `yaml:"database_path"`
	FlowsDirs    []string `yaml:"flows_dirs"`

	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// OllamaConfig selects the local Ollama server and model.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // auto, console, json
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Backend: BackendProvider,
		Model:   "gemini-2.0-flash",
		Provider: catwalk.Provider{
			Name: "Google Gemini",
			ID:   catwalk.InferenceProvider("gemini"),
			Type: catwalk.TypeGoogle,
		},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "llama3.2:3b",
		},
		Timeout:      60 * time.Second,
		RetryBase:    500 * time.Millisecond,
		DatabasePath: paths.DatabaseFile(),
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads configuration from the given path, falling back to defaults when
// missing, then applies MEDASSIST_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendProvider:
		if c.Model == "" {
			return fmt.Errorf("config: model is required for the provider backend")
		}
	case BackendOllama:
		if c.Ollama.Host == "" {
			return fmt.Errorf("config: ollama.host is required for the ollama backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", c.Backend, BackendProvider, BackendOllama)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}

	str("BACKEND", &cfg.Backend)
	str("MODEL", &cfg.Model)
	str("OLLAMA_HOST", &cfg.Ollama.Host)
	str("OLLAMA_MODEL", &cfg.Ollama.Model)
	str("DB", &cfg.DatabasePath)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("ADDR", &cfg.Server.Addr)
	str("PROVIDER_ENDPOINT", &cfg.Provider.APIEndpoint)

	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "PROVIDER")); v != "" {
		p, ok := providerByID(v)
		if !ok {
			return fmt.Errorf("%sPROVIDER: unknown provider %q", EnvPrefix, v)
		}
		cfg.Provider = p
	}
	if v := os.Getenv(EnvPrefix + "FLOWS_DIRS"); v != "" {
		cfg.FlowsDirs = strings.Split(v, string(os.PathListSeparator))
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "MAX_RETRIES")); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%sMAX_RETRIES: %w", EnvPrefix, err)
		}
		cfg.MaxRetries = n
	}
	if err := dur("TIMEOUT", &cfg.Timeout); err != nil {
		return err
	}
	return dur("RETRY_BASE", &cfg.RetryBase)
}

// FlowDirectories returns the configured flow directories, or the default
// lookup order when none are configured.
func (c Config) FlowDirectories() []string {
	if len(c.FlowsDirs) > 0 {
		return c.FlowsDirs
	}
	return paths.FlowsDirs()
}
