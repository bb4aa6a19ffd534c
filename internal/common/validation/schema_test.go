// internal/common/validation/schema_test.go
package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topicSchema = `{
	"type": "object",
	"required": ["label"],
	"properties": {
		"label": {"type": "string", "minLength": 1},
		"count": {"type": "integer"}
	}
}`

func TestValidateJSON_ValidDocument(t *testing.T) {
	doc := map[string]interface{}{"label": "invoice tracking", "count": 3}

	result, err := ValidateJSON(doc, topicSchema)

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateJSON_CollectsErrors(t *testing.T) {
	doc := map[string]interface{}{"count": "three"}

	result, err := ValidateJSON(doc, topicSchema)

	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)

	codes := make([]string, 0, len(result.Errors))
	for _, verr := range result.Errors {
		codes = append(codes, verr.Code)
	}
	assert.Contains(t, codes, "REQUIRED")
	assert.Contains(t, codes, "INVALID_TYPE")

	messages := strings.Join(result.GetErrorMessages(), "; ")
	assert.Contains(t, messages, "label")
	assert.Contains(t, messages, "count")
}

func TestValidateJSON_BadSchema(t *testing.T) {
	_, err := ValidateJSON(map[string]interface{}{}, `{"type":`)

	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"radar@example.com", true},
		{"first.last+digest@sub.example.io", true},
		{"", false},
		{"plainaddress", false},
		{"missing-domain@", false},
		{"two words@example.com", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidateEmail(tt.email), "email %q", tt.email)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com/feed.xml", true},
		{"http://127.0.0.1:8080/rss", true},
		{"ftp://files.example.com/archive.xml", true},
		{"", false},
		{"feed.example.com/rss", false},
		{"https://", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidateURL(tt.url), "url %q", tt.url)
	}
}
