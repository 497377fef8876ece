package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cert-evaluator-be/internal/constant"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/metrics"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/llm"
	"cert-evaluator-be/pkg/retry"
)

// Classifier routes a user message to an intent. Stop and restart are
// matched deterministically before the language model is asked.
type Classifier struct {
	provider llm.LLMProvider
	policy   retry.Policy
	logger   logger.ILogger
}

func NewClassifier(provider llm.LLMProvider, policy retry.Policy, logger logger.ILogger) *Classifier {
	return &Classifier{provider: provider, policy: policy, logger: logger}
}

type routedIntent struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

func (c *Classifier) Classify(ctx context.Context, state State, history []*entity.SessionTurn, text string) Intent {
	if !state.ShouldContinue {
		if IsRestart(text) {
			return IntentRestart
		}
		return IntentGeneral
	}
	if IsStop(text) {
		return IntentStop
	}
	if strings.TrimSpace(text) == "" {
		return IntentGeneral
	}

	prompt := fmt.Sprintf(constant.IntentRouterPrompt, state.Status, state.HasCriteria, formatHistory(history), text)
	started := time.Now()
	routed, err := retry.Call(ctx, "llm", c.policy, func(ctx context.Context) (routedIntent, error) {
		var out routedIntent
		_, err := llm.Interpret(ctx, c.provider, "intent", []llm.Message{{Role: "user", Content: prompt}}, &out)
		return out, err
	})
	metrics.RecordCollaborator("llm", collaboratorOutcome(err), started)

	if err == nil {
		if intent, ok := ParseIntent(routed.Intent); ok {
			return intent
		}
	}

	fallback := KeywordIntent(state.Status, text)
	c.logger.Warn("IntentClassifier", "Falling back to keyword intent", map[string]interface{}{
		"status": string(state.Status),
		"intent": string(fallback),
		"routed": routed.Intent,
		"error":  err,
	})
	return fallback
}

func formatHistory(history []*entity.SessionTurn) string {
	if len(history) == 0 {
		return "(no previous messages)"
	}
	var sb strings.Builder
	for _, t := range history {
		fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Text)
	}
	return sb.String()
}
