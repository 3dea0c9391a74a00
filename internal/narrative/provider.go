package narrative

import (
	"context"
	"fmt"

	"ga4insight/internal/config"
)

// Provider is a generative text backend
type Provider interface {
	GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error)
	GetProviderName() string
}

// ProviderType for the factory
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOpenAI ProviderType = "openai"
)

// ProviderConfig to create a provider
type ProviderConfig struct {
	Type ProviderType

	GeminiKey string
	OpenAIKey string

	Model       string
	Temperature float32
	MaxTokens   int

	// BaseURL overrides the API endpoint (proxies, tests)
	BaseURL string
}

// ConfigFrom maps the narrative section of the app config
func ConfigFrom(cfg config.NarrativeConfig) *ProviderConfig {
	return &ProviderConfig{
		Type:        ProviderType(cfg.Provider),
		GeminiKey:   cfg.GeminiAPIKey,
		OpenAIKey:   cfg.OpenAIAPIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

// NewProvider creates the configured provider
func NewProvider(cfg *ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case ProviderGemini, "":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
		p := NewGeminiProvider(cfg.GeminiKey, cfg.Model, cfg.Temperature, cfg.MaxTokens)
		if cfg.BaseURL != "" {
			p.baseURL = cfg.BaseURL
		}
		return p, nil

	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.BaseURL), nil

	default:
		return nil, fmt.Errorf("unknown narrative provider: %s", cfg.Type)
	}
}
