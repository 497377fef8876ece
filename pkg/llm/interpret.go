package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"cert-evaluator-be/pkg/apperr"
)

// Interpret runs a structured ("interpret") call: the model is asked for a
// JSON object which is decoded into target. The raw model text is returned
// in every case so callers can log it. A response without a decodable object
// yields *apperr.ParseError; transport failures are returned unchanged.
func Interpret(ctx context.Context, provider LLMProvider, schema string, history []Message, target interface{}, options ...Option) (string, error) {
	opts := append([]Option{WithJSON(), WithTemperature(0.1)}, options...)

	raw, err := provider.Chat(ctx, history, opts...)
	if err != nil {
		return "", err
	}

	body, ok := ExtractJSON(raw)
	if !ok {
		return raw, &apperr.ParseError{Schema: schema, Raw: raw, Err: errors.New("no JSON object in response")}
	}
	if err := json.Unmarshal([]byte(body), target); err != nil {
		return raw, &apperr.ParseError{Schema: schema, Raw: raw, Err: err}
	}
	return raw, nil
}

// ExtractJSON strips markdown fences and returns the outermost {...} span.
func ExtractJSON(response string) (string, bool) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```JSON")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return response[start : end+1], true
}
