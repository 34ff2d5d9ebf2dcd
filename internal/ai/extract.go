package ai

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// fencedJSON matches a ```json fenced block whose body is a single JSON object.
// Only the first block in the text is considered.
var fencedJSON = regexp.MustCompile("(?s)```json\n(\\{.*?\\})\n```")

// Extraction is the result of scanning assistant text for structured data.
// Exactly one of Data or Text is meaningful.
type Extraction struct {
	Data json.RawMessage
	Text string
}

// Structured reports whether a JSON object was found.
func (e Extraction) Structured() bool { return e.Data != nil }

// Extract looks for the first fenced JSON object in raw. When none is present the
// whole text is returned unchanged. A fenced block that does not parse fails with
// a malformed_json error carrying the decoder diagnostic.
func Extract(raw string) (Extraction, error) {
	m := fencedJSON.FindStringSubmatch(raw)
	if m == nil {
		return Extraction{Text: raw}, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(m[1])); err != nil {
		return Extraction{}, newError(KindMalformedJSON, "fenced block is not valid JSON", err)
	}
	return Extraction{Data: json.RawMessage(buf.Bytes())}, nil
}

// Fence wraps a JSON object the way assistants are asked to emit it, so that
// Extract(Fence(data)) yields data again.
func Fence(data json.RawMessage) string {
	return "```json\n" + string(data) + "\n```"
}
