package llm

import (
	"context"
	"errors"
	"testing"

	"cert-evaluator-be/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply string
	err   error
	opts  *Options
}

func (s *stubProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	s.opts = &Options{}
	for _, o := range options {
		o(s.opts)
	}
	return s.reply, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return s.Chat(ctx, []Message{{Role: "user", Content: prompt}}, options...)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOk bool
	}{
		{"plain object", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"surrounded by prose", `Sure! Here it is: {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`, true},
		{"no object", "I cannot answer that", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpret(t *testing.T) {
	var target struct {
		Intent string `json:"intent"`
	}

	provider := &stubProvider{reply: "```json\n{\"intent\":\"stop\"}\n```"}
	raw, err := Interpret(context.Background(), provider, "intent", []Message{{Role: "user", Content: "bye"}}, &target)

	require.NoError(t, err)
	assert.Equal(t, "stop", target.Intent)
	assert.Contains(t, raw, "stop")
	assert.True(t, provider.opts.JSON)
	assert.Equal(t, 0.1, provider.opts.Temperature)
}

func TestInterpretParseError(t *testing.T) {
	var target map[string]interface{}

	raw, err := Interpret(context.Background(), &stubProvider{reply: "not json at all"}, "criteria", nil, &target)

	var parseErr *apperr.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "not json at all", parseErr.Raw)
	assert.Equal(t, "not json at all", raw)
}

func TestInterpretPassesTransportErrors(t *testing.T) {
	var target map[string]interface{}
	boom := errors.New("connection refused")

	_, err := Interpret(context.Background(), &stubProvider{err: boom}, "criteria", nil, &target)

	assert.ErrorIs(t, err, boom)
	assert.False(t, apperr.IsParse(err))
}
