package criteria

import "strings"

const (
	FallbackExpiryName = "expiryDate"
	FallbackAgencyName = "issuingAgency"
)

var (
	expiryKeywords = []string{"expiry", "expiration", "expire", "expires", "valid until", "validity"}
	agencyKeywords = []string{"agency", "issuer", "issued by", "issuing", "authority"}
)

// Fallback scans free text for the expiry/agency keywords and builds a
// criteria map from whatever it finds. It is used only when the language
// model could not interpret the user's criteria. The scan is deliberately
// narrow; ok is false when neither keyword family is present.
func Fallback(text string) (m Map, description string, ok bool) {
	lower := strings.ToLower(text)
	m = make(Map)

	if containsAny(lower, expiryKeywords) {
		m[FallbackExpiryName] = Criterion{Required: true}
	}
	if containsAny(lower, agencyKeywords) {
		m[FallbackAgencyName] = Criterion{Required: true}
	}
	if len(m) == 0 {
		return nil, "", false
	}
	return m.EqualShare(), strings.TrimSpace(text), true
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
