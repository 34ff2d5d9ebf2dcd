package prompts

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordPrompt(t *testing.T) {
	p := KeywordSystemPrompt()
	for _, field := range []string{"city", "country", "countryCode", "days", "start_time", "end_time", "end_location", "preferences", "language"} {
		assert.Contains(t, p, "'"+field+"'", "prompt should name %s", field)
	}
	assert.Contains(t, p, "Google GL Parameter")
	assert.Contains(t, p, "2024")
	assert.Contains(t, p, "```json\n{")

	assert.Equal(t, "Tokyo for 3 days", KeywordUserTurn("Tokyo for 3 days"))
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
		err  bool
	}{
		{"", VariantFull, false},
		{"full", VariantFull, false},
		{"SLIM", VariantSlim, false},
		{" mini ", VariantMini, false},
		{"changed", VariantChanged, false},
		{"huge", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if tt.err {
				assert.True(t, errors.Is(err, ErrUnknownVariant))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestItinerarySystemPromptVariants(t *testing.T) {
	full, err := SpecFor(VariantFull)
	require.NoError(t, err)
	slim, err := SpecFor(VariantSlim)
	require.NoError(t, err)
	changed, err := SpecFor(VariantChanged)
	require.NoError(t, err)

	fullPrompt := ItinerarySystemPrompt(full)
	assert.Contains(t, fullPrompt, "around 50 words")
	assert.NotContains(t, fullPrompt, "slots of each day")
	assert.NotContains(t, fullPrompt, "timeIntervals")
	assert.Contains(t, fullPrompt, "lunch and dinner")
	assert.Contains(t, fullPrompt, `"itineraryItems"`)

	slimPrompt := ItinerarySystemPrompt(slim)
	assert.Contains(t, slimPrompt, "at most 3")
	assert.Contains(t, slimPrompt, "around 10 words")

	assert.Contains(t, ItinerarySystemPrompt(changed), "timeIntervals")

	mini, err := SpecFor(VariantMini)
	require.NoError(t, err)
	assert.Equal(t, slimPrompt, ItinerarySystemPrompt(mini))
}

func TestItineraryUserTurn(t *testing.T) {
	in := ItineraryInput{
		Days:    2,
		City:    "Tokyo",
		Country: "Japan",
		Choices: []json.RawMessage{
			json.RawMessage(`{"title": "Senso-ji", "category": "activity"}`),
			json.RawMessage(`{"title":"Ichiran","category":"lunch"}`),
		},
	}

	got, err := ItineraryUserTurn(in)
	require.NoError(t, err)
	assert.Equal(t,
		`This is a 2 day trip in Tokyo, Japan. The JSON file is [{"title":"Senso-ji","category":"activity"},{"title":"Ichiran","category":"lunch"}].`,
		got)

	again, err := ItineraryUserTurn(in)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestItineraryUserTurnOptionalClauses(t *testing.T) {
	got, err := ItineraryUserTurn(ItineraryInput{
		Days:        1,
		City:        "Kyoto",
		Country:     "Japan",
		StartTime:   "9:00 AM",
		EndTime:     "8:00 PM",
		EndLocation: "Kyoto Station",
		Preferences: "temples",
		Language:    "Japanese",
	})
	require.NoError(t, err)

	order := []string{
		"This is a 1 day trip in Kyoto, Japan.",
		" The start time is 9:00 AM.",
		" The end time is 8:00 PM.",
		" The itinerary should end at Kyoto Station.",
		" The user preferences are: temples.",
		" Respond in Japanese.",
		" The JSON file is [].",
	}
	last := -1
	for _, clause := range order {
		idx := strings.Index(got, clause)
		require.GreaterOrEqual(t, idx, 0, "missing %q in %q", clause, got)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestItineraryUserTurnInvalidChoice(t *testing.T) {
	_, err := ItineraryUserTurn(ItineraryInput{Days: 1, City: "Osaka", Country: "Japan",
		Choices: []json.RawMessage{json.RawMessage(`{broken`)}})
	assert.Error(t, err)
}
