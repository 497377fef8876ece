package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cert-evaluator-be/pkg/llm"
)

var _ llm.LLMProvider = (*OllamaProvider)(nil)

// OllamaProvider talks to the non-streaming /api/chat endpoint.
type OllamaProvider struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

// NewOllamaProvider builds a client for the Ollama /api/chat endpoint. The
// http timeout is a backstop; callers bound each call with a context deadline.
func NewOllamaProvider(baseURL, modelName string, temperature float64) *OllamaProvider {
	return &OllamaProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       modelName,
		temperature: temperature,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (o *OllamaProvider) buildRequest(history []llm.Message, opts []llm.Option) ollamaChatRequest {
	options := &llm.Options{Temperature: o.temperature}
	for _, opt := range opts {
		opt(options)
	}

	req := ollamaChatRequest{
		Model:    o.model,
		Messages: make([]ollamaMessage, 0, len(history)),
		Options:  &ollamaOptions{Temperature: options.Temperature, NumPredict: options.MaxTokens},
	}
	if options.Model != "" {
		req.Model = options.Model
	}
	if options.JSON {
		req.Format = "json"
	}
	for _, m := range history {
		role := m.Role
		if role == "model" {
			role = "assistant"
		}
		req.Messages = append(req.Messages, ollamaMessage{Role: role, Content: m.Content})
	}
	return req
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	payload, err := json.Marshal(o.buildRequest(history, opts))
	if err != nil {
		return "", fmt.Errorf("ollama chat: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ollama chat: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama chat: decode: %w", err)
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return "", errors.New("ollama chat: empty reply")
	}
	return out.Message.Content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
