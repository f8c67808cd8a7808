// Package config loads medassist settings and stored provider credentials.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/medportal/medassist/internal/paths"
)

// DetectedProvider is a hosted model provider and whether a key is present.
type DetectedProvider struct {
	ID     string // catwalk provider ID
	Name   string
	EnvVar string
	HasKey bool
}

var knownProviders = []DetectedProvider{
	{ID: "gemini", Name: "Google (Gemini)", EnvVar: "GEMINI_API_KEY"},
	{ID: "openai", Name: "OpenAI", EnvVar: "OPENAI_API_KEY"},
	{ID: "anthropic", Name: "Anthropic (Claude)", EnvVar: "ANTHROPIC_API_KEY"},
	{ID: "openrouter", Name: "OpenRouter", EnvVar: "OPENROUTER_API_KEY"},
	{ID: "groq", Name: "Groq", EnvVar: "GROQ_API_KEY"},
}

// DetectProviders reports which known providers have a key in the
// environment. Call InjectCredentials first to include stored keys.
func DetectProviders() []DetectedProvider {
	result := make([]DetectedProvider, len(knownProviders))
	for i, p := range knownProviders {
		p.HasKey = os.Getenv(p.EnvVar) != ""
		result[i] = p
	}
	return result
}

// HasAnyProvider returns true if at least one provider has credentials.
func HasAnyProvider() bool {
	for _, p := range DetectProviders() {
		if p.HasKey {
			return true
		}
	}
	return false
}

// ProviderCredential stores a single provider's API key.
type ProviderCredential struct {
	APIKey  string    `json:"api_key"`
	AddedAt time.Time `json:"added_at"`
}

// StoredCredentials is the on-disk credentials file.
type StoredCredentials struct {
	Version     int                           `json:"version"`
	Credentials map[string]ProviderCredential `json:"credentials"`
}

var (
	credentialsMu    sync.Mutex
	credentialsCache *StoredCredentials
)

// LoadStoredCredentials reads credentials from disk once and caches them.
func LoadStoredCredentials() (*StoredCredentials, error) {
	credentialsMu.Lock()
	defer credentialsMu.Unlock()

	if credentialsCache != nil {
		return credentialsCache, nil
	}
	creds, err := readCredentials(paths.CredentialsFile())
	if err != nil {
		return nil, err
	}
	credentialsCache = creds
	return creds, nil
}

func readCredentials(path string) (*StoredCredentials, error) {
	creds := &StoredCredentials{Version: 1}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read credentials: %w", err)
	default:
		if err := json.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
	}

	if creds.Credentials == nil {
		creds.Credentials = make(map[string]ProviderCredential)
	}
	return creds, nil
}

// SaveCredentials writes credentials readable only by the owner.
func SaveCredentials(creds *StoredCredentials) error {
	credentialsMu.Lock()
	defer credentialsMu.Unlock()

	path := paths.CredentialsFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	credentialsCache = creds
	return nil
}

// StoreCredential saves an API key for a provider.
func StoreCredential(providerID, apiKey string) error {
	if _, ok := envVarFor(providerID); !ok {
		return fmt.Errorf("unknown provider %q", providerID)
	}
	creds, err := LoadStoredCredentials()
	if err != nil {
		return err
	}

	creds.Credentials[providerID] = ProviderCredential{
		APIKey:  apiKey,
		AddedAt: time.Now(),
	}
	return SaveCredentials(creds)
}

// InjectCredentials exports stored keys as environment variables without
// overwriting variables that are already set.
func InjectCredentials() error {
	creds, err := LoadStoredCredentials()
	if err != nil {
		return err
	}

	for providerID, cred := range creds.Credentials {
		envVar, ok := envVarFor(providerID)
		if !ok || os.Getenv(envVar) != "" {
			continue
		}
		if err := os.Setenv(envVar, cred.APIKey); err != nil {
			return err
		}
	}
	return nil
}

func envVarFor(providerID string) (string, bool) {
	for _, p := range knownProviders {
		if p.ID == providerID {
			return p.EnvVar, true
		}
	}
	return "", false
}

// ClearCredentialCache drops the in-memory credentials.
func ClearCredentialCache() {
	credentialsMu.Lock()
	defer credentialsMu.Unlock()
	credentialsCache = nil
}
