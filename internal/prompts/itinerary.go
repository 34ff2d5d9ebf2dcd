package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

const itineraryIntro = `Detect the language of the user's input and respond in the same language.

You will receive a JSON file containing multiple items. Each item includes:
- 'category' (e.g., activity, lunch, dinner)
- 'title'
- 'rating'
- 'address'
- 'operating hours'
- 'description'

You will also receive the number of travel days, a specific start time, end time, end location, and any user preferences if provided.

Plan the itinerary within the specified timeframe and end at the specified location if provided.
If the user mentions a start time or end time, adjust activities to fit within this window.
Summarize the description and rating for each item, and organize the activities within the time constraints.

Additional Instructions:
- Ensure that each day includes lunch and dinner activities.
- Consider the address and commute time between locations, avoiding scheduling locations that are far apart consecutively.
- Make sure to account for commute time in the starting and ending times.
- Each interval between activities should not exceed one hour.
`

const itinerarySchema = "```json" + `
{
  "itineraryItems": [
    {
      "day": X,
      "dates": "YYYY-MM-DD",
      "city": "City Name",
      "image": "image URL from the json",
      "slots": [
        {
          "data_id": "data_id",
          "location": "Title of the place",
          "time": {
            "startTime": "HH:MM AM/PM",
            "endTime": "HH:MM AM/PM"
          },
          "description": "Description of the place",
          "language": "the detected language name in English, e.g., 'English', 'Japanese'"
        }
      ]
    }
  ]
}
` + "```"

// ItinerarySystemPrompt renders the planning instructions for a variant.
func ItinerarySystemPrompt(spec VariantSpec) string {
	var b strings.Builder
	b.WriteString(itineraryIntro)
	if spec.MaxSlotsPerDay > 0 {
		fmt.Fprintf(&b, "- Limit the number of slots of each day to at most %d.\n", spec.MaxSlotsPerDay)
	}
	fmt.Fprintf(&b, "- Limit each title's description to around %d words.\n", spec.DescriptionWords)
	b.WriteString("- Only include activities that match the user's preferences (e.g., indoor activities).\n")
	if spec.VerifyIntervals {
		b.WriteString("- Before giving the final answer, double-check that no interval between consecutive activities exceeds one hour. " +
			"Add an element \"timeIntervals\" to each day listing every interval in minutes so the check is visible.\n")
	}
	b.WriteString("\nReply with a single fenced block in exactly this shape:\n")
	b.WriteString(itinerarySchema)
	return b.String()
}

// ItineraryInput is the data rendered into the itinerary user turn.
type ItineraryInput struct {
	Days        int
	City        string
	Country     string
	StartTime   string
	EndTime     string
	EndLocation string
	Preferences string
	Language    string
	Choices     []json.RawMessage
}

// ItineraryUserTurn renders the trip request as a single user message. Optional
// clauses are included only when their field is set. Choices are embedded as a
// compact JSON array.
func ItineraryUserTurn(in ItineraryInput) (string, error) {
	choices := in.Choices
	if choices == nil {
		choices = []json.RawMessage{}
	}
	encoded, err := json.Marshal(choices)
	if err != nil {
		return "", fmt.Errorf("encode choices: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This is a %d day trip in %s, %s.", in.Days, in.City, in.Country)
	if in.StartTime != "" {
		fmt.Fprintf(&b, " The start time is %s.", in.StartTime)
	}
	if in.EndTime != "" {
		fmt.Fprintf(&b, " The end time is %s.", in.EndTime)
	}
	if in.EndLocation != "" {
		fmt.Fprintf(&b, " The itinerary should end at %s.", in.EndLocation)
	}
	if in.Preferences != "" {
		fmt.Fprintf(&b, " The user preferences are: %s.", in.Preferences)
	}
	if in.Language != "" {
		fmt.Fprintf(&b, " Respond in %s.", in.Language)
	}
	fmt.Fprintf(&b, " The JSON file is %s.", encoded)
	return b.String(), nil
}
