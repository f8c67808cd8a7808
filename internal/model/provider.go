package model

import (
	"context"
	"fmt"
	"os"
	"strings"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/google"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openaicompat"
	"charm.land/fantasy/providers/openrouter"
	"github.com/charmbracelet/catwalk/pkg/catwalk"
)

// NewProvider creates a Fantasy provider from Catwalk configuration.
func NewProvider(p catwalk.Provider) (fantasy.Provider, error) {
	apiKey := ProviderAPIKey(p)

	switch p.Type {
	case catwalk.TypeOpenAI:
		opts := []openai.Option{openai.WithAPIKey(apiKey)}
		if p.APIEndpoint != "" {
			opts = append(opts, openai.WithBaseURL(p.APIEndpoint))
		}
		if len(p.DefaultHeaders) > 0 {
			opts = append(opts, openai.WithHeaders(p.DefaultHeaders))
		}
		return openai.New(opts...)

	case catwalk.TypeOpenAICompat:
		opts := []openaicompat.Option{openaicompat.WithAPIKey(apiKey)}
		if p.APIEndpoint != "" {
			opts = append(opts, openaicompat.WithBaseURL(p.APIEndpoint))
		}
		if len(p.DefaultHeaders) > 0 {
			opts = append(opts, openaicompat.WithHeaders(p.DefaultHeaders))
		}
		return openaicompat.New(opts...)

	case catwalk.TypeAnthropic:
		opts := []anthropic.Option{anthropic.WithAPIKey(apiKey)}
		if p.APIEndpoint != "" {
			opts = append(opts, anthropic.WithBaseURL(p.APIEndpoint))
		}
		return anthropic.New(opts...)

	case catwalk.TypeGoogle:
		return google.New(google.WithGeminiAPIKey(apiKey))

	case catwalk.TypeOpenRouter:
		return openrouter.New(openrouter.WithAPIKey(apiKey))

	default:
		if p.APIEndpoint != "" {
			return openaicompat.New(
				openaicompat.WithAPIKey(apiKey),
				openaicompat.WithBaseURL(p.APIEndpoint),
			)
		}
		return nil, fmt.Errorf("unsupported provider type: %s", p.Type)
	}
}

// ProviderAPIKey returns the provider's API key from config, falling back to
// the <ID>_API_KEY environment variable. Google also honours GEMINI_API_KEY.
// A configured key of the form $NAME is read from the environment.
func ProviderAPIKey(p catwalk.Provider) string {
	if strings.HasPrefix(p.APIKey, "$") {
		p.APIKey = os.ExpandEnv(p.APIKey)
	}
	if p.APIKey != "" {
		return p.APIKey
	}
	if key := os.Getenv(APIKeyEnv(p)); key != "" {
		return key
	}
	if p.Type == catwalk.TypeGoogle {
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

// APIKeyEnv is the environment variable consulted for a provider's key.
func APIKeyEnv(p catwalk.Provider) string {
	if p.ID == "" {
		return ""
	}
	return strings.ToUpper(string(p.ID)) + "_API_KEY"
}

// NewLanguageModel creates a Fantasy language model from provider and model ID.
func NewLanguageModel(ctx context.Context, p catwalk.Provider, modelID string) (fantasy.LanguageModel, error) {
	provider, err := NewProvider(p)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return provider.LanguageModel(ctx, modelID)
}
