package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain message passes through", "image generation timed out", "image generation timed out"},
		{"openai-style key is redacted", "auth failed for sk-abcdefghijklmnopqrstuvwxyz", "auth failed for [REDACTED]"},
		{"replicate-style key is redacted", "token r8_abcdefghijklmnopqrstuvwxyz rejected", "token [REDACTED] rejected"},
		{"bearer token is redacted", "sent Bearer abcdefghijklmnopqrstuvwxyz1234", "sent [REDACTED]"},
		{"key=value assignment is redacted", "config had key=abcdefghijklmnopqrstuvwxyz", "config had [REDACTED]"},
		{"password assignment is redacted", "login with password=hunter2", "login with [REDACTED]"},
		{"email address is redacted", "contact buyer@example.com about refund", "contact [REDACTED] about refund"},
		{"16-digit card-like run is redacted", "card 4111111111111111 declined", "card [REDACTED] declined"},
		{"short numeric run is not treated as a card", "retry after 12 attempts", "retry after 12 attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeString(tt.input))
		})
	}
}

func TestSanitizeContext(t *testing.T) {
	t.Run("nil context stays nil", func(t *testing.T) {
		assert.Nil(t, SanitizeContext(nil))
	})

	t.Run("PII keys are dropped entirely, not just redacted", func(t *testing.T) {
		clean := SanitizeContext(map[string]any{
			"customer_email": "buyer@example.com",
			"trend_id":       "abc-123",
		})
		_, hasEmail := clean["customer_email"]
		assert.False(t, hasEmail)
		assert.Equal(t, "abc-123", clean["trend_id"])
	})

	t.Run("PII key matching is case-insensitive", func(t *testing.T) {
		clean := SanitizeContext(map[string]any{"Customer_Email": "buyer@example.com"})
		_, has := clean["Customer_Email"]
		assert.False(t, has)
	})

	t.Run("string values are sanitized in place", func(t *testing.T) {
		clean := SanitizeContext(map[string]any{"error_detail": "key=abcdefghijklmnopqrstuvwxyz leaked"})
		assert.Equal(t, "[REDACTED] leaked", clean["error_detail"])
	})

	t.Run("nested maps are sanitized recursively", func(t *testing.T) {
		clean := SanitizeContext(map[string]any{
			"nested": map[string]any{
				"password": "supersecret",
				"note":     "contact admin@example.com",
			},
		})
		nested := clean["nested"].(map[string]any)
		_, hasPassword := nested["password"]
		assert.False(t, hasPassword)
		assert.Equal(t, "contact [REDACTED]", nested["note"])
	})

	t.Run("non-string non-map values pass through unchanged", func(t *testing.T) {
		clean := SanitizeContext(map[string]any{"retry_count": 3})
		assert.Equal(t, 3, clean["retry_count"])
	})
}
