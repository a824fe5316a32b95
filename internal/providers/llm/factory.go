package llm

import (
	"context"
	"fmt"
	"strings"
)

type Config struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`
}

// New picks a provider by name. An empty name means vertex.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "vertex":
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("llm: vertex needs a GCP project id")
		}
		loc := cfg.Location
		if loc == "" {
			loc = "us-central1"
		}
		return NewVertexGemini(ctx, cfg.ProjectID, loc, cfg.Model)
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: gemini needs an api key")
		}
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "azure":
		if cfg.BaseURL == "" || cfg.Model == "" {
			return nil, fmt.Errorf("llm: azure needs base url and deployment model")
		}
		return NewAzureOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "anthropic":
		return NewAnthropic(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
