package criteria

import (
	"testing"

	"cert-evaluator-be/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]interface{}
		want    Map
		wantErr bool
	}{
		{
			name: "full entries",
			raw: map[string]interface{}{
				"expiryDate": map[string]interface{}{"weight": 0.6, "required": true, "value": "2027-01-01"},
				"agency":     map[string]interface{}{"weight": 0.4, "required": false, "value": nil},
			},
			want: Map{
				"expiryDate": {Weight: 0.6, Required: true, Value: "2027-01-01"},
				"agency":     {Weight: 0.4},
			},
		},
		{
			name: "missing fields default to zero values",
			raw:  map[string]interface{}{"agency": map[string]interface{}{}},
			want: Map{"agency": {}},
		},
		{
			name:    "entry is not an object",
			raw:     map[string]interface{}{"agency": "FAA"},
			wantErr: true,
		},
		{
			name:    "negative weight",
			raw:     map[string]interface{}{"agency": map[string]interface{}{"weight": -0.1}},
			wantErr: true,
		},
		{
			name:    "weight is not numeric",
			raw:     map[string]interface{}{"agency": map[string]interface{}{"weight": "high"}},
			wantErr: true,
		},
		{
			name:    "required is not boolean",
			raw:     map[string]interface{}{"agency": map[string]interface{}{"required": "yes"}},
			wantErr: true,
		},
		{
			name:    "nil map",
			raw:     nil,
			wantErr: true,
		},
		{
			name: "empty map is accepted",
			raw:  map[string]interface{}{},
			want: Map{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateWarnsOnOverweight(t *testing.T) {
	m := Map{"a": {Weight: 0.8}, "b": {Weight: 0.7}}

	warnings, err := m.Validate()
	require.NoError(t, err)
	assert.Len(t, warnings, 1)

	warnings, err = Map{"a": {Weight: 0.5}, "b": {Weight: 0.5}}.Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestParseJSON(t *testing.T) {
	m, err := ParseJSON([]byte(`{"expiryDate":{"weight":1,"required":true}}`))
	require.NoError(t, err)
	assert.Equal(t, Map{"expiryDate": {Weight: 1, Required: true}}, m)

	_, err = ParseJSON([]byte(`["expiryDate"]`))
	assert.True(t, apperr.IsValidation(err))
}

func TestClampThreshold(t *testing.T) {
	v := func(f float64) *float64 { return &f }

	assert.Equal(t, 70.0, ClampThreshold(nil))
	assert.Equal(t, 0.0, ClampThreshold(v(-5)))
	assert.Equal(t, 100.0, ClampThreshold(v(150)))
	assert.Equal(t, 42.5, ClampThreshold(v(42.5)))
}

func TestNamesAreSorted(t *testing.T) {
	m := Map{"zeta": {}, "alpha": {}, "mid": {}}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, m.Names())
}

func TestEqualShare(t *testing.T) {
	m := Map{"a": {Required: true}, "b": {}, "c": {}, "d": {}}.EqualShare()

	assert.InDelta(t, 1.0, m.TotalWeight(), 1e-9)
	assert.Equal(t, 0.25, m["a"].Weight)
	assert.True(t, m["a"].Required)
}

func TestMergeTouchesOnlyChangedKeys(t *testing.T) {
	current := Map{
		"expiryDate": {Weight: 0.5, Required: true, Value: "2027-01-01"},
		"agency":     {Weight: 0.5, Required: false, Value: "FAA"},
	}

	merged, err := current.Merge(map[string]interface{}{
		"agency": map[string]interface{}{"required": true},
	})
	require.NoError(t, err)

	assert.Equal(t, current["expiryDate"], merged["expiryDate"])
	assert.Equal(t, Criterion{Weight: 0.5, Required: true, Value: "FAA"}, merged["agency"])
	assert.False(t, current["agency"].Required, "source map must not be mutated")
	assert.Equal(t, []string{"agency"}, Diff(current, merged))
}

func TestMergeRejectsInvalidResult(t *testing.T) {
	current := Map{"agency": {Weight: 0.5}}

	_, err := current.Merge(map[string]interface{}{
		"agency": map[string]interface{}{"weight": -1},
	})
	assert.True(t, apperr.IsValidation(err))
}
