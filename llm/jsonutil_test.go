package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
	}{
		{
			name:    "plain JSON",
			input:   `{"projectName": "widget"}`,
			wantKey: "projectName",
		},
		{
			name:    "markdown code block",
			input:   "```json\n{\"projectName\": \"widget\"}\n```",
			wantKey: "projectName",
		},
		{
			name:    "markdown block with trailing prose",
			input:   "```json\n{\"tagline\": \"fast\"}\n```\n\nLet me know if you want changes.",
			wantKey: "tagline",
		},
		{
			name:    "comments and trailing commas",
			input:   "```json\n{\n  \"bullets\": [\n    \"one\",  // first\n    \"two\",  // second\n  ],\n}\n```",
			wantKey: "bullets",
		},
		{
			name:    "URL in string not stripped",
			input:   `{"visualPrompt": "logo from https://example.com/a.png"}`,
			wantKey: "visualPrompt",
		},
		{
			name:    "prose before object",
			input:   "Here is your deck:\n{\"slides\": []}",
			wantKey: "slides",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			require.NotEmpty(t, got)

			var parsed map[string]any
			require.NoError(t, json.Unmarshal([]byte(got), &parsed), "extracted: %s", got)
			assert.Contains(t, parsed, tt.wantKey)
		})
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	assert.Empty(t, ExtractJSON(""))
	assert.Empty(t, ExtractJSON("I could not read that README."))
}

func TestStripLineComment(t *testing.T) {
	assert.Equal(t, `"a": "b",`, stripLineComment(`"a": "b",   // note`))
	assert.Equal(t, `"u": "http://x.io"`, stripLineComment(`"u": "http://x.io"`))
	assert.Equal(t, `"q": "say \"//\""`, stripLineComment(`"q": "say \"//\""`))
}

func TestExtractJSON_StringValuesUntouched(t *testing.T) {
	valid := `{"bullets": ["Supports [a, ] syntax", "x"]}`
	assert.Equal(t, valid, ExtractJSON(valid))

	// invalid only because of the trailing comma outside the strings
	got := ExtractJSON(`{"bullets": ["Supports [a, ] syntax", "x",], "title": "{b, }",}`)
	var parsed struct {
		Bullets []string `json:"bullets"`
		Title   string   `json:"title"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &parsed), "extracted: %s", got)
	assert.Equal(t, []string{"Supports [a, ] syntax", "x"}, parsed.Bullets)
	assert.Equal(t, "{b, }", parsed.Title)
}

func TestStripTrailingCommas(t *testing.T) {
	assert.Equal(t, `{"a": [1, 2]}`, stripTrailingCommas(`{"a": [1, 2,]}`))
	assert.Equal(t, "{\"a\": 1\n}", stripTrailingCommas("{\"a\": 1,\n}"))
	assert.Equal(t, `{"q": "x\", ]"}`, stripTrailingCommas(`{"q": "x\", ]"}`))
}
