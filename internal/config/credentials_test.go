package config

import (
	"os"
	"runtime"
	"testing"

	"github.com/medportal/medassist/internal/paths"
)

// isolate points the config directory at a temp dir and clears provider keys.
func isolate(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("config isolation relies on XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, p := range knownProviders {
		t.Setenv(p.EnvVar, "")
	}
	ClearCredentialCache()
	t.Cleanup(ClearCredentialCache)
}

func TestDetectProviders(t *testing.T) {
	isolate(t)

	for _, p := range DetectProviders() {
		if p.HasKey {
			t.Errorf("provider %s should not have key when env is empty", p.ID)
		}
	}
	if HasAnyProvider() {
		t.Error("should not have any provider when all env vars are empty")
	}

	t.Setenv("GEMINI_API_KEY", "test-key")

	var found bool
	for _, p := range DetectProviders() {
		if p.ID == "gemini" {
			found = true
			if !p.HasKey {
				t.Error("gemini should have key after setting env")
			}
		}
	}
	if !found {
		t.Error("gemini provider not found")
	}
	if !HasAnyProvider() {
		t.Error("should have provider after setting GEMINI_API_KEY")
	}
}

func TestCredentialStorage(t *testing.T) {
	isolate(t)

	creds, err := LoadStoredCredentials()
	if err != nil {
		t.Fatalf("LoadStoredCredentials failed: %v", err)
	}
	if creds.Version != 1 || len(creds.Credentials) != 0 {
		t.Fatalf("expected empty version 1 credentials, got %+v", creds)
	}

	if err := StoreCredential("anthropic", "test-api-key"); err != nil {
		t.Fatalf("StoreCredential failed: %v", err)
	}

	ClearCredentialCache()
	creds, err = LoadStoredCredentials()
	if err != nil {
		t.Fatalf("LoadStoredCredentials failed: %v", err)
	}
	if creds.Credentials["anthropic"].APIKey != "test-api-key" {
		t.Error("stored key doesn't match")
	}

	info, err := os.Stat(paths.CredentialsFile())
	if err != nil {
		t.Fatalf("stat credentials: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected permissions 0600, got %o", perm)
	}
}

func TestStoreCredential_UnknownProvider(t *testing.T) {
	isolate(t)
	if err := StoreCredential("not-a-provider", "key"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestLoadStoredCredentials_Corrupt(t *testing.T) {
	isolate(t)
	if err := os.MkdirAll(paths.ConfigDir(), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.CredentialsFile(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStoredCredentials(); err == nil {
		t.Error("expected parse error")
	}
}

func TestInjectCredentials(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "existing-key")

	if err := StoreCredential("gemini", "injected-key"); err != nil {
		t.Fatalf("StoreCredential failed: %v", err)
	}
	if err := StoreCredential("openai", "stored-key"); err != nil {
		t.Fatalf("StoreCredential failed: %v", err)
	}
	ClearCredentialCache()

	if err := InjectCredentials(); err != nil {
		t.Fatalf("InjectCredentials failed: %v", err)
	}
	if got := os.Getenv("GEMINI_API_KEY"); got != "injected-key" {
		t.Errorf("GEMINI_API_KEY = %q, want injected-key", got)
	}
	if got := os.Getenv("OPENAI_API_KEY"); got != "existing-key" {
		t.Errorf("OPENAI_API_KEY should not be overwritten, got %q", got)
	}
}
