package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeEmail(t *testing.T) {
	hash := AnonymizeEmail("jane@example.com")
	assert.NotEmpty(t, hash)
	assert.NotContains(t, hash, "jane")
	assert.NotContains(t, hash, "example.com")
	assert.Contains(t, hash, "user:")

	// Stable across calls so log lines remain correlatable.
	assert.Equal(t, hash, AnonymizeEmail("jane@example.com"))
	assert.NotEqual(t, hash, AnonymizeEmail("john@example.com"))

	assert.Empty(t, AnonymizeEmail(""))
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"123-45-6789", "12***89"},
		{"secret-value", "se***ue"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskValue(tt.input))
	}
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	assert.Equal(t, "[token:12 chars]", SanitizeToken("abcdef123456"))
	assert.NotContains(t, SanitizeToken("supersecrettoken"), "supersecret")
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "example.com", ExtractDomain("jane@example.com"))
	assert.Empty(t, ExtractDomain("not-an-email"))
	assert.Empty(t, ExtractDomain("a@b@c"))
}

func TestErrNilSafe(t *testing.T) {
	attr := Err(nil)
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())

	attr = Err(assert.AnError)
	assert.Equal(t, KeyError, attr.Key)
}

func TestSetupLevels(t *testing.T) {
	logger := Setup("debug")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = Setup("warn")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	// Unknown names fall back to info.
	logger = Setup("verbose")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
