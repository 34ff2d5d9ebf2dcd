package ai

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		structured bool
		want       string
	}{
		{
			name: "prose only",
			raw:  "Which city are you visiting?",
			want: "Which city are you visiting?",
		},
		{
			name:       "fenced object",
			raw:        "Here you go:\n```json\n{\"city\": \"Tokyo\", \"days\": 3}\n```\nEnjoy!",
			structured: true,
			want:       `{"city":"Tokyo","days":3}`,
		},
		{
			name:       "first block wins",
			raw:        "```json\n{\"a\": 1}\n```\n```json\n{\"b\": 2}\n```",
			structured: true,
			want:       `{"a":1}`,
		},
		{
			name:       "multi line body",
			raw:        "```json\n{\n  \"itineraryItems\": [\n    {\"day\": 1}\n  ]\n}\n```",
			structured: true,
			want:       `{"itineraryItems":[{"day":1}]}`,
		},
		{
			name: "unlabelled fence is prose",
			raw:  "```\n{\"a\": 1}\n```",
			want: "```\n{\"a\": 1}\n```",
		},
		{
			name: "array body is prose",
			raw:  "```json\n[1, 2]\n```",
			want: "```json\n[1, 2]\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.structured, got.Structured())
			if tt.structured {
				assert.JSONEq(t, tt.want, string(got.Data))
				assert.Empty(t, got.Text)
			} else {
				assert.Equal(t, tt.want, got.Text)
			}
		})
	}
}

func TestExtractMalformed(t *testing.T) {
	_, err := Extract("```json\n{\"city\": Tokyo}\n```")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedJSON))
	assert.Equal(t, KindMalformedJSON, KindOf(err))

	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "diagnostic should be kept as the cause")
}

func TestFenceRoundTrip(t *testing.T) {
	data := json.RawMessage(`{"city":"Kyoto","country":"Japan","days":2}`)

	got, err := Extract(Fence(data))
	require.NoError(t, err)
	require.True(t, got.Structured())
	assert.Equal(t, string(data), string(got.Data))

	again, err := Extract(Fence(got.Data))
	require.NoError(t, err)
	assert.Equal(t, string(got.Data), string(again.Data))
}
