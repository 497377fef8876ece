package factory

import (
	"fmt"

	"cert-evaluator-be/pkg/llm"
	"cert-evaluator-be/pkg/llm/ollama"
	"cert-evaluator-be/pkg/llm/openaicompat"
)

type Config struct {
	Provider    string // "ollama" | "openai"
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model, cfg.Temperature), nil
	case "openai", "huggingface":
		return openaicompat.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
