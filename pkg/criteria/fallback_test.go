package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOk    bool
		wantNames []string
	}{
		{"expiry only", "Make sure the expiry date is after 2026", true, []string{FallbackExpiryName}},
		{"agency only", "It must be issued by a recognised agency", true, []string{FallbackAgencyName}},
		{"both", "Check the expiration and the issuing authority", true, []string{FallbackExpiryName, FallbackAgencyName}},
		{"nothing recognisable", "I like blue certificates", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, description, ok := Fallback(tt.text)
			assert.Equal(t, tt.wantOk, ok)
			if !tt.wantOk {
				assert.Nil(t, m)
				return
			}
			assert.Len(t, m, len(tt.wantNames))
			for _, name := range tt.wantNames {
				assert.Contains(t, m, name)
				assert.True(t, m[name].Required)
			}
			assert.InDelta(t, 1.0, m.TotalWeight(), 1e-9)
			assert.Equal(t, tt.text, description)
		})
	}
}
