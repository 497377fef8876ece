package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cert-evaluator-be/internal/constant"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/metrics"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/llm"
	"cert-evaluator-be/pkg/retrieval"
	"cert-evaluator-be/pkg/retry"
	"cert-evaluator-be/pkg/scoring"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DescriptionCriterion = "description"

	ReasonNoInformation = "no information found"
	ReasonNotAssessed   = "not assessed"

	checksSchema = "validation checks"
)

type Config struct {
	TopK   int
	Policy retry.Policy
}

// Result is the executor's verdict before scoring. Passed means every
// required criterion passed; the threshold is applied later by scoring.
type Result struct {
	Passed   bool
	Checks   []scoring.Check
	Evidence []retrieval.Chunk
	Raw      string
}

type Executor struct {
	retriever retrieval.Retriever
	provider  llm.LLMProvider
	cfg       Config
	logger    logger.ILogger
	tracer    trace.Tracer
}

func NewExecutor(retriever retrieval.Retriever, provider llm.LLMProvider, cfg Config, logger logger.ILogger) *Executor {
	if cfg.TopK <= 0 {
		cfg.TopK = retrieval.DefaultTopK
	}
	return &Executor{
		retriever: retriever,
		provider:  provider,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("cert-evaluator/validation"),
	}
}

// EffectiveCriteria returns the criteria to judge. A set with no entries but
// a description is judged as one required criterion carrying the description.
func EffectiveCriteria(set *entity.CriteriaSet) (criteria.Map, error) {
	if len(set.Criteria) > 0 {
		return set.Criteria, nil
	}
	if description := strings.TrimSpace(set.Description); description != "" {
		return criteria.Map{
			DescriptionCriterion: {Weight: 1.0, Required: true, Value: description},
		}, nil
	}
	return nil, apperr.Validation("criteria", "criteria set %s is empty", set.Id)
}

// Evaluate gathers context for every criterion and has the model judge each
// one strictly from that context.
func (e *Executor) Evaluate(ctx context.Context, set *entity.CriteriaSet, documentId *uuid.UUID) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "validation.evaluate", trace.WithAttributes(
		attribute.String("criteria.id", set.Id.String()),
		attribute.Int("criteria.count", len(set.Criteria)),
	))
	defer span.End()

	effective, err := EffectiveCriteria(set)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	names := effective.Names()

	evidence, err := e.gather(ctx, set.SessionId, documentId, effective, names)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, err
	}

	if len(evidence) == 0 {
		checks := make([]scoring.Check, 0, len(names))
		for _, name := range names {
			checks = append(checks, failedCheck(name, effective[name], ReasonNoInformation))
		}
		e.logger.Info("ValidationExecutor", "No context found, all criteria failed", map[string]interface{}{
			"criteria_id": set.Id.String(),
		})
		return &Result{Passed: requiredPassed(checks), Checks: checks, Evidence: evidence}, nil
	}

	raw, judged, err := e.judge(ctx, set, effective, evidence)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "judgment failed")
		return nil, err
	}

	checks := align(names, effective, judged)
	span.SetAttributes(attribute.Int("checks.count", len(checks)))
	return &Result{Passed: requiredPassed(checks), Checks: checks, Evidence: evidence, Raw: raw}, nil
}

// gather runs one retrieval query per criterion in parallel and merges the
// results in criterion order, dropping duplicate passages.
func (e *Executor) gather(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID, effective criteria.Map, names []string) ([]retrieval.Chunk, error) {
	ctx, span := e.tracer.Start(ctx, "validation.retrieve")
	defer span.End()

	filters := retrieval.Filters{SessionId: &sessionId, DocumentId: documentId, TopK: e.cfg.TopK}
	perCriterion := make([][]retrieval.Chunk, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		query := buildQuery(name, effective[name])
		g.Go(func() error {
			started := time.Now()
			chunks, err := retry.Call(gctx, "retrieval", e.cfg.Policy, func(ctx context.Context) ([]retrieval.Chunk, error) {
				return e.retriever.Search(ctx, query, filters)
			})
			metrics.RecordCollaborator("retrieval", outcome(err), started)
			if err != nil {
				return err
			}
			perCriterion[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	merged := make([]retrieval.Chunk, 0)
	for _, chunks := range perCriterion {
		for _, c := range chunks {
			if strings.TrimSpace(c.Text) == "" || seen[c.Text] {
				continue
			}
			seen[c.Text] = true
			merged = append(merged, c)
		}
	}
	span.SetAttributes(attribute.Int("chunks.count", len(merged)))
	return merged, nil
}

type judgedCheck struct {
	Criterion  string      `json:"criterion"`
	Expected   interface{} `json:"expected"`
	Found      interface{} `json:"found"`
	Passed     bool        `json:"passed"`
	Confidence *float64    `json:"confidence"`
	Reason     string      `json:"reason"`
}

type judgment struct {
	Checks []judgedCheck `json:"checks"`
}

func (e *Executor) judge(ctx context.Context, set *entity.CriteriaSet, effective criteria.Map, evidence []retrieval.Chunk) (string, []judgedCheck, error) {
	ctx, span := e.tracer.Start(ctx, "validation.judge")
	defer span.End()

	criteriaJSON, err := json.MarshalIndent(effective, "", "  ")
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	for i, c := range evidence {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, strings.TrimSpace(c.Text))
	}

	description := set.Description
	if description == "" {
		description = "(none)"
	}
	prompt := fmt.Sprintf(constant.ValidationJudgePrompt, string(criteriaJSON), description, sb.String())
	history := []llm.Message{{Role: "user", Content: prompt}}

	var raw string
	started := time.Now()
	result, err := retry.Call(ctx, "llm", e.cfg.Policy, func(ctx context.Context) (judgment, error) {
		var out judgment
		r, err := llm.Interpret(ctx, e.provider, checksSchema, history, &out)
		raw = r
		if err == nil && out.Checks == nil {
			err = &apperr.ParseError{Schema: checksSchema, Raw: r, Err: errors.New(`missing "checks" array`)}
		}
		return out, err
	})
	metrics.RecordCollaborator("llm", outcome(err), started)
	if err != nil {
		if apperr.IsParse(err) {
			e.logger.Warn("ValidationExecutor", "Unparseable judgment", map[string]interface{}{
				"criteria_id": set.Id.String(),
				"raw":         raw,
			})
		}
		return raw, nil, err
	}
	return raw, result.Checks, nil
}

// align maps the model's checks onto the criteria set: one check per
// criterion in name order. Unknown names are dropped, missing ones fail.
func align(names []string, effective criteria.Map, judged []judgedCheck) []scoring.Check {
	byName := make(map[string]judgedCheck, len(judged))
	for _, j := range judged {
		name := strings.TrimSpace(j.Criterion)
		if _, known := effective[name]; !known {
			continue
		}
		if _, dup := byName[name]; dup {
			continue
		}
		byName[name] = j
	}

	checks := make([]scoring.Check, 0, len(names))
	for _, name := range names {
		def := effective[name]
		j, ok := byName[name]
		if !ok {
			checks = append(checks, failedCheck(name, def, ReasonNotAssessed))
			continue
		}

		expected := j.Expected
		if expected == nil {
			expected = def.Value
		}
		weight := def.Weight
		checks = append(checks, scoring.Check{
			Criterion:  name,
			Expected:   expected,
			Found:      j.Found,
			Passed:     j.Passed,
			Weight:     &weight,
			Required:   def.Required,
			Confidence: clampConfidence(j.Confidence),
			Reason:     j.Reason,
		})
	}
	return checks
}

func failedCheck(name string, def criteria.Criterion, reason string) scoring.Check {
	weight := def.Weight
	return scoring.Check{
		Criterion: name,
		Expected:  def.Value,
		Passed:    false,
		Weight:    &weight,
		Required:  def.Required,
		Reason:    reason,
	}
}

func requiredPassed(checks []scoring.Check) bool {
	for _, c := range checks {
		if c.Required && !c.Passed {
			return false
		}
	}
	return true
}

func buildQuery(name string, def criteria.Criterion) string {
	if def.Value == nil {
		return name
	}
	return fmt.Sprintf("%s %v", name, def.Value)
}

func clampConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := *c
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperr.IsParse(err):
		return "parse_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
