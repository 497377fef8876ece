package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/scoring"
)

// SummarizeCriteria lists criteria as "name (required, 50%)". A set with no
// entries is summarized by its description.
func SummarizeCriteria(m criteria.Map, description string) string {
	if len(m) == 0 {
		return fmt.Sprintf("%q", description)
	}

	parts := make([]string, 0, len(m))
	for _, name := range m.Names() {
		c := m[name]
		var attrs []string
		if c.Required {
			attrs = append(attrs, "required")
		}
		if c.Weight > 0 {
			attrs = append(attrs, fmt.Sprintf("%.0f%%", c.Weight*100))
		}
		if c.Value != nil {
			attrs = append(attrs, fmt.Sprintf("expected %v", c.Value))
		}

		if len(attrs) == 0 {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", name, strings.Join(attrs, ", ")))
		}
	}
	return strings.Join(parts, "; ")
}

// RenderResult builds the user-facing validation report.
func RenderResult(result scoring.Result, checks []scoring.Check, comparison *entity.Comparison) string {
	var sb strings.Builder

	verdict := "FAILED"
	if result.Passed {
		verdict = "PASSED"
	}
	fmt.Fprintf(&sb, "Validation %s with a score of %.2f (threshold %.0f).\n", verdict, scoring.Round2(result.OverallScore), result.Threshold)
	if !result.RequiredPassed {
		sb.WriteString("At least one required criterion was not met.\n")
	}

	for _, c := range checks {
		mark := "✗"
		if c.Passed {
			mark = "✓"
		}
		fmt.Fprintf(&sb, "%s %s", mark, c.Criterion)
		if c.Found != nil {
			fmt.Fprintf(&sb, ": found %v", c.Found)
		}
		if c.Reason != "" {
			fmt.Fprintf(&sb, " (%s)", c.Reason)
		}
		sb.WriteString("\n")
	}

	if comparison != nil {
		sb.WriteString(RenderComparison(comparison))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func RenderComparison(c *entity.Comparison) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Compared with the previous run the score changed by %+.2f", c.ScoreDelta)
	if c.PassedChanged {
		fmt.Fprintf(&sb, " and the verdict flipped from %s to %s", verdictWord(c.PreviousPassed), verdictWord(c.NewPassed))
	}
	sb.WriteString(".\n")
	if len(c.CriteriaModified) > 0 {
		fmt.Fprintf(&sb, "Modified criteria: %s.\n", strings.Join(c.CriteriaModified, ", "))
	}
	return sb.String()
}

// SummarizeEvaluation is the one-line result fed to conversational replies.
func SummarizeEvaluation(e *entity.Evaluation) string {
	if e == nil {
		return "none yet"
	}
	parts := make([]string, 0, len(e.Checks))
	for _, c := range e.Checks {
		state := "failed"
		if c.Passed {
			state = "passed"
		}
		detail := state
		if c.Reason != "" {
			detail += ": " + c.Reason
		}
		parts = append(parts, fmt.Sprintf("%s %s", c.Criterion, detail))
	}
	return fmt.Sprintf("score %.2f, %s; %s", e.Score, verdictWord(e.Passed), strings.Join(parts, "; "))
}

func verdictWord(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}

func collaboratorOutcome(err error) string {
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
