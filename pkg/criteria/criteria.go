package criteria

import (
	"encoding/json"
	"math"
	"sort"

	"cert-evaluator-be/pkg/apperr"
)

const (
	DefaultThreshold = 70.0
	MinThreshold     = 0.0
	MaxThreshold     = 100.0
)

// Criterion is the fixed record shape stored under every user-defined name.
type Criterion struct {
	Weight   float64     `json:"weight"`
	Required bool        `json:"required"`
	Value    interface{} `json:"value"`
}

// Map is an open mapping from criterion name to its definition.
type Map map[string]Criterion

// Parse converts a decoded JSON object into a Map. Every entry must itself be
// an object, and weights must be non-negative numbers when present.
func Parse(raw map[string]interface{}) (Map, error) {
	if raw == nil {
		return nil, apperr.Validation("criteria", "criteria must be an object")
	}

	result := make(Map, len(raw))
	for name, entry := range raw {
		if name == "" {
			return nil, apperr.Validation("criteria", "criterion name must not be empty")
		}
		fields, ok := entry.(map[string]interface{})
		if !ok {
			return nil, apperr.Validation("criteria."+name, "criterion must be an object")
		}

		var c Criterion
		if w, exists := fields["weight"]; exists && w != nil {
			weight, ok := toFloat(w)
			if !ok {
				return nil, apperr.Validation("criteria."+name+".weight", "weight must be a number")
			}
			c.Weight = weight
		}
		if r, exists := fields["required"]; exists && r != nil {
			required, ok := r.(bool)
			if !ok {
				return nil, apperr.Validation("criteria."+name+".required", "required must be a boolean")
			}
			c.Required = required
		}
		c.Value = fields["value"]
		result[name] = c
	}

	if _, err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// ParseJSON decodes raw JSON bytes and parses the resulting object.
func ParseJSON(data []byte) (Map, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperr.Validation("criteria", "criteria must be a JSON object: %v", err)
	}
	return Parse(raw)
}

// Validate rejects negative or non-finite weights. A total weight above 1.0
// is allowed and reported as a warning because scoring normalizes it.
func (m Map) Validate() ([]string, error) {
	for name, c := range m {
		if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return nil, apperr.Validation("criteria."+name+".weight", "weight must be finite")
		}
		if c.Weight < 0 {
			return nil, apperr.Validation("criteria."+name+".weight", "weight must be >= 0, got %v", c.Weight)
		}
	}

	var warnings []string
	if total := m.TotalWeight(); total > 1.0 {
		warnings = append(warnings, "criteria weights sum to more than 1.0; scores will be normalized proportionally")
	}
	return warnings, nil
}

// Names returns criterion names in lexical order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m Map) TotalWeight() float64 {
	var total float64
	for _, c := range m {
		total += c.Weight
	}
	return total
}

// Weights returns name -> weight, the shape the scoring engine consumes.
func (m Map) Weights() map[string]float64 {
	weights := make(map[string]float64, len(m))
	for name, c := range m {
		weights[name] = c.Weight
	}
	return weights
}

// EqualShare assigns 1/n to every entry. Used when a set arrives without any weights.
func (m Map) EqualShare() Map {
	if len(m) == 0 {
		return m
	}
	share := 1.0 / float64(len(m))
	result := make(Map, len(m))
	for name, c := range m {
		c.Weight = share
		result[name] = c
	}
	return result
}

// ToRaw returns the generic JSON form used by DeepMerge and Diff.
func (m Map) ToRaw() map[string]interface{} {
	raw := make(map[string]interface{}, len(m))
	if m == nil {
		return raw
	}
	data, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	_ = json.Unmarshal(data, &raw)
	return raw
}

// Merge deep-merges a partial update into the map and re-parses the result.
func (m Map) Merge(updates map[string]interface{}) (Map, error) {
	return Parse(DeepMerge(m.ToRaw(), updates))
}

// ClampThreshold resolves an optional threshold to [0, 100], defaulting to 70.
func ClampThreshold(threshold *float64) float64 {
	if threshold == nil || math.IsNaN(*threshold) {
		return DefaultThreshold
	}
	return math.Min(MaxThreshold, math.Max(MinThreshold, *threshold))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
