package scoring

import "math"

const DefaultThreshold = 70.0

// Check is the judged outcome of one criterion. Weight is optional: when nil
// the weight recorded in the criteria set is used.
type Check struct {
	Criterion  string      `json:"criterion"`
	Expected   interface{} `json:"expected"`
	Found      interface{} `json:"found"`
	Passed     bool        `json:"passed"`
	Weight     *float64    `json:"weight,omitempty"`
	Required   bool        `json:"required"`
	Confidence *float64    `json:"confidence,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Contribution explains how one check moved the overall score.
type Contribution struct {
	Criterion    string  `json:"criterion"`
	Weight       float64 `json:"weight"`
	Passed       bool    `json:"passed"`
	Contribution float64 `json:"contribution"`
	SubScore     float64 `json:"sub_score"`
}

type Result struct {
	OverallScore    float64        `json:"overall_score"`
	Passed          bool           `json:"passed"`
	ThresholdPassed bool           `json:"threshold_passed"`
	RequiredPassed  bool           `json:"required_passed"`
	TotalWeight     float64        `json:"total_weight"`
	Threshold       float64        `json:"threshold"`
	Breakdown       []Contribution `json:"breakdown"`
}

// Score maps checks, criteria weights and a pass threshold to a normalized
// 0-100 score. It has no side effects and the same input always gives the
// same output.
//
// Weights summing to at most 1.0 are used as-is, larger sums are normalized
// proportionally, and an all-zero weighting falls back to the share of
// passed checks.
func Score(checks []Check, criteriaWeights map[string]float64, threshold float64) Result {
	breakdown := make([]Contribution, 0, len(checks))

	var totalWeight, weightedSum float64
	passedCount := 0
	requiredPassed := true

	for _, check := range checks {
		weight := resolveWeight(check, criteriaWeights)
		totalWeight += weight

		contribution := 0.0
		subScore := 0.0
		if check.Passed {
			contribution = weight
			subScore = weight * 100
			weightedSum += weight
			passedCount++
		}
		if check.Required && !check.Passed {
			requiredPassed = false
		}

		breakdown = append(breakdown, Contribution{
			Criterion:    check.Criterion,
			Weight:       weight,
			Passed:       check.Passed,
			Contribution: contribution,
			SubScore:     subScore,
		})
	}

	var overall float64
	switch {
	case totalWeight > 1.0:
		overall = (weightedSum / totalWeight) * 100
	case totalWeight > 0:
		overall = weightedSum * 100
	case len(checks) > 0:
		overall = float64(passedCount) / float64(len(checks)) * 100
	}
	overall = clamp(overall, 0, 100)

	thresholdPassed := overall >= threshold
	return Result{
		OverallScore:    overall,
		Passed:          thresholdPassed && requiredPassed,
		ThresholdPassed: thresholdPassed,
		RequiredPassed:  requiredPassed,
		TotalWeight:     totalWeight,
		Threshold:       threshold,
		Breakdown:       breakdown,
	}
}

func resolveWeight(check Check, criteriaWeights map[string]float64) float64 {
	var weight float64
	if check.Weight != nil {
		weight = *check.Weight
	} else if w, ok := criteriaWeights[check.Criterion]; ok {
		weight = w
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return 0
	}
	return weight
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}

// Round2 rounds to two decimals, half away from zero, so Round2(-x) == -Round2(x).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
