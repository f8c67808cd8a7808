package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/catwalk/pkg/catwalk"

	"github.com/medportal/medassist/internal/ollama"
	"github.com/medportal/medassist/internal/schema"
)

func TestFunc(t *testing.T) {
	var seen Request
	m := Func(func(ctx context.Context, req Request) (*Response, error) {
		seen = req
		return &Response{Raw: []byte(`{}`)}, nil
	})

	resp, err := m.Generate(context.Background(), Request{Flow: "f", Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(resp.Raw) != "{}" || seen.Prompt != "p" {
		t.Errorf("resp = %s, seen = %+v", resp.Raw, seen)
	}
}

func TestOllama_Generate(t *testing.T) {
	var got ollama.ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"model":"llama3.2:3b","message":{"role":"assistant","content":"not json at all"},"done":true}`))
	}))
	defer server.Close()

	m := NewOllama(ollama.NewClient(ollama.WithHost(server.URL)), "")
	resp, err := m.Generate(context.Background(), Request{
		Flow:        "prescriptionAnalysis",
		Prompt:      "Read this prescription",
		Schema:      schema.New("Out", "", schema.String("summary", "").Require()),
		Attachments: []Attachment{{Name: "photo", MediaType: "image/png", Data: []byte("hello")}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if string(resp.Raw) != "not json at all" {
		t.Errorf("Raw = %q, want content passed through unparsed", resp.Raw)
	}
	if resp.Model != ollama.DefaultModel {
		t.Errorf("Model = %q", resp.Model)
	}
	if len(got.Messages) != 2 || got.Messages[1].Images[0] != "aGVsbG8=" {
		t.Errorf("messages = %+v", got.Messages)
	}

	var format map[string]any
	if err := json.Unmarshal(got.Format, &format); err != nil {
		t.Fatalf("format: %v", err)
	}
	if format["type"] != "object" {
		t.Errorf("format = %v", format)
	}
}

func TestOllama_GenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := NewOllama(ollama.NewClient(ollama.WithHost(server.URL)), "m")
	if _, err := m.Generate(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestProviderAPIKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	p := catwalk.Provider{ID: "google", Type: catwalk.TypeGoogle}
	if got := ProviderAPIKey(p); got != "gemini-key" {
		t.Errorf("ProviderAPIKey() = %q, want gemini-key", got)
	}

	t.Setenv("GOOGLE_API_KEY", "google-key")
	if got := ProviderAPIKey(p); got != "google-key" {
		t.Errorf("ProviderAPIKey() = %q, want google-key", got)
	}

	p.APIKey = "configured"
	if got := ProviderAPIKey(p); got != "configured" {
		t.Errorf("ProviderAPIKey() = %q, want configured", got)
	}

	if got := APIKeyEnv(catwalk.Provider{ID: "openai"}); got != "OPENAI_API_KEY" {
		t.Errorf("APIKeyEnv() = %q", got)
	}
}

func TestNewProvider_Unsupported(t *testing.T) {
	if _, err := NewProvider(catwalk.Provider{ID: "mystery", Type: "mystery"}); err == nil {
		t.Error("expected error for unknown provider without endpoint")
	}
}
