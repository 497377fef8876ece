package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cert-evaluator-be/internal/constant"
	"cert-evaluator-be/internal/metrics"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/llm"
	"cert-evaluator-be/pkg/retry"
)

// Interpretation is what the language model understood from a criteria
// message. Criteria is set by Extract, Updates by ExtractUpdates.
type Interpretation struct {
	Criteria    criteria.Map
	Updates     map[string]interface{}
	Description string
	Threshold   *float64
	Fallback    bool
}

// Empty reports whether nothing usable was understood.
func (i *Interpretation) Empty() bool {
	return len(i.Criteria) == 0 && len(i.Updates) == 0 && strings.TrimSpace(i.Description) == ""
}

type criteriaResponse struct {
	Structured  map[string]interface{} `json:"structured"`
	Description string                 `json:"description"`
	Threshold   *float64               `json:"threshold"`
}

type Interpreter struct {
	provider llm.LLMProvider
	policy   retry.Policy
	logger   logger.ILogger
}

func NewInterpreter(provider llm.LLMProvider, policy retry.Policy, logger logger.ILogger) *Interpreter {
	return &Interpreter{provider: provider, policy: policy, logger: logger}
}

func (i *Interpreter) ask(ctx context.Context, schema, prompt string) (criteriaResponse, string, error) {
	var raw string
	started := time.Now()
	out, err := retry.Call(ctx, "llm", i.policy, func(ctx context.Context) (criteriaResponse, error) {
		var resp criteriaResponse
		r, err := llm.Interpret(ctx, i.provider, schema, []llm.Message{{Role: "user", Content: prompt}}, &resp)
		raw = r
		return resp, err
	})
	metrics.RecordCollaborator("llm", collaboratorOutcome(err), started)
	return out, raw, err
}

// Extract turns free text into a complete criteria set. When the model
// fails or answers with malformed criteria the keyword fallback is tried.
// A well-formed but empty answer is returned as is.
func (i *Interpreter) Extract(ctx context.Context, text string) (*Interpretation, error) {
	resp, _, err := i.ask(ctx, "criteria", fmt.Sprintf(constant.CriteriaExtractionPrompt, text))

	var m criteria.Map
	if err == nil {
		structured := resp.Structured
		if structured == nil {
			structured = map[string]interface{}{}
		}
		m, err = criteria.Parse(structured)
	}
	if err != nil {
		fallback, description, ok := criteria.Fallback(text)
		i.logger.Warn("CriteriaInterpreter", "Criteria extraction failed", map[string]interface{}{
			"fallback": ok,
			"error":    err,
		})
		if !ok {
			return nil, err
		}
		return &Interpretation{Criteria: fallback, Description: description, Fallback: true}, nil
	}

	if len(m) > 0 && m.TotalWeight() == 0 {
		m = m.EqualShare()
	}
	return &Interpretation{
		Criteria:    m,
		Description: strings.TrimSpace(resp.Description),
		Threshold:   resp.Threshold,
	}, nil
}

// ExtractUpdates asks for the entries of current that the message changes.
// The result is a partial map meant for criteria.Map.Merge.
func (i *Interpreter) ExtractUpdates(ctx context.Context, current criteria.Map, text string) (*Interpretation, error) {
	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, err
	}

	resp, raw, err := i.ask(ctx, "criteria update", fmt.Sprintf(constant.CriteriaUpdatePrompt, string(currentJSON), text))
	if err != nil {
		return nil, err
	}
	for name, entry := range resp.Structured {
		if _, ok := entry.(map[string]interface{}); !ok {
			return nil, &apperr.ParseError{
				Schema: "criteria update",
				Raw:    raw,
				Err:    fmt.Errorf("entry %q is not an object", name),
			}
		}
	}
	return &Interpretation{
		Updates:     resp.Structured,
		Description: strings.TrimSpace(resp.Description),
		Threshold:   resp.Threshold,
	}, nil
}
