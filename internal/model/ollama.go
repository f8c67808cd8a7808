package model

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/medportal/medassist/internal/ollama"
)

// Ollama answers requests with a local Ollama model in schema-constrained
// JSON mode. The message content is returned as-is, so a model that ignores
// the format is caught by the executor's parse step.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates an Ollama-backed model.
func NewOllama(client *ollama.Client, modelName string) *Ollama {
	if modelName == "" {
		modelName = ollama.DefaultModel
	}
	return &Ollama{client: client, model: modelName}
}

// Generate implements Model.
func (m *Ollama) Generate(ctx context.Context, req Request) (*Response, error) {
	user := ollama.Message{Role: "user", Content: req.Prompt}
	for _, a := range req.Attachments {
		user.Images = append(user.Images, base64.StdEncoding.EncodeToString(a.Data))
	}

	var format any
	if req.Schema != nil {
		format = req.Schema.JSONSchema()
	}

	raw, err := m.client.ChatStructured(ctx, m.model, []ollama.Message{
		{Role: "system", Content: structuredSystemPrompt},
		user,
	}, format, &ollama.Options{
		Temperature: 0.1, // Low temperature for consistent extraction
	})
	if err != nil {
		return nil, fmt.Errorf("ollama %s: %w", m.model, err)
	}
	return &Response{Raw: raw, Model: m.model}, nil
}
