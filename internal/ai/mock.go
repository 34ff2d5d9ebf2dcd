package ai

import (
	"context"
	"sync"
)

// Responder produces a reply for a transcript.
type Responder func(transcript []Turn) (string, error)

// MockProvider is an in-process LLMProvider used for tests and offline runs.
// It records every transcript it receives.
type MockProvider struct {
	mu      sync.Mutex
	respond Responder
	calls   [][]Turn
	models  []string
}

// Ensure MockProvider implements LLMProvider interface.
var _ LLMProvider = (*MockProvider)(nil)

// NewMockProvider returns a provider that answers with respond. A nil responder
// asks for the destination, which is enough to drive a local conversation.
func NewMockProvider(respond Responder) *MockProvider {
	if respond == nil {
		respond = func([]Turn) (string, error) {
			return "Which city would you like to visit, and for how many days?", nil
		}
	}
	return &MockProvider{respond: respond}
}

func (m *MockProvider) Complete(ctx context.Context, transcript []Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError(KindProvider, "request cancelled", err)
	}
	snapshot := append([]Turn(nil), transcript...)

	m.mu.Lock()
	m.calls = append(m.calls, snapshot)
	m.models = append(m.models, ModelFrom(ctx, ""))
	m.mu.Unlock()

	return m.respond(snapshot)
}

// Calls returns the transcripts received so far, oldest first.
func (m *MockProvider) Calls() [][]Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]Turn(nil), m.calls...)
}

// Models returns the model override seen on each call ("" when none was set).
func (m *MockProvider) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.models...)
}

// Replies returns a Responder that hands out replies in order and repeats the
// last one once they run out.
func Replies(replies ...string) Responder {
	var mu sync.Mutex
	i := 0
	return func([]Turn) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			return "", newError(KindEmptyResponse, "no scripted replies", nil)
		}
		r := replies[min(i, len(replies)-1)]
		i++
		return r, nil
	}
}

// Fail returns a Responder that always fails with err.
func Fail(err error) Responder {
	return func([]Turn) (string, error) { return "", err }
}
