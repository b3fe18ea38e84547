// Package ledger implements the pipeline-run ledger and error ledger:
// mandatory PII/secret redaction, synchronous error writes, and the
// consecutive-failure detector, all driven by explicit field handling
// rather than reflection.
package ledger

import "regexp"

// sensitivePatterns is the fixed set of patterns redacted out of any logged
// string: API-key prefixes, bearer tokens, key=/secret=/token=/password=
// assignments, email addresses, and 13-19 digit credit-card-like runs.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`(?i)r8_[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9._\-]{20,}`),
	regexp.MustCompile(`(?i)token[=:]\s*[a-zA-Z0-9._\-]{20,}`),
	regexp.MustCompile(`(?i)key[=:]\s*[a-zA-Z0-9._\-]{20,}`),
	regexp.MustCompile(`(?i)secret[=:]\s*[a-zA-Z0-9._\-]{20,}`),
	regexp.MustCompile(`(?i)password[=:]\s*\S+`),
	regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`\b\d{13,19}\b`),
}

const redactionToken = "[REDACTED]"

// piiKeys is the closed set of context keys that are dropped entirely
// rather than sanitized, regardless of value shape.
var piiKeys = map[string]bool{
	"customer_name": true, "customer_email": true, "customer_address": true,
	"email": true, "address": true, "phone": true, "name": true,
	"password": true, "api_key": true, "secret": true,
	"access_token": true, "refresh_token": true, "credit_card": true, "ssn": true,
}

// SanitizeString replaces every sensitive-pattern match with the redaction
// token.
func SanitizeString(s string) string {
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, redactionToken)
	}
	return s
}

// SanitizeContext recursively drops PII-keyed entries and sanitizes string
// values reachable inside the map. Non-string, non-map values pass through
// unchanged.
func SanitizeContext(context map[string]any) map[string]any {
	if context == nil {
		return nil
	}
	clean := make(map[string]any, len(context))
	for key, value := range context {
		if piiKeys[toLower(key)] {
			continue
		}
		switch v := value.(type) {
		case string:
			clean[key] = SanitizeString(v)
		case map[string]any:
			clean[key] = SanitizeContext(v)
		default:
			clean[key] = v
		}
	}
	return clean
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
