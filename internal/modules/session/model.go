// README: Session model (keyword-search transcript keyed by session id).
package session

import (
	"errors"
	"time"

	"pocket/internal/ai"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTranscript = errors.New("transcript must start with a system turn")
	ErrUnknownBackend    = errors.New("unknown session backend")
)

// Session is one keyword-search conversation.
type Session struct {
	ID         string    `json:"id"`
	Transcript []ai.Turn `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// New returns a session seeded with the system prompt.
func New(id, systemPrompt string, now time.Time) *Session {
	return &Session{
		ID:         id,
		Transcript: []ai.Turn{ai.SystemTurn(systemPrompt)},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy so callers can append without touching stored state.
func (s *Session) Clone() *Session {
	c := *s
	c.Transcript = append([]ai.Turn(nil), s.Transcript...)
	return &c
}

func (s *Session) Append(turns ...ai.Turn) {
	s.Transcript = append(s.Transcript, turns...)
	s.UpdatedAt = time.Now()
}

// Validate checks the transcript invariant.
func (s *Session) Validate() error {
	if len(s.Transcript) == 0 || s.Transcript[0].Role != ai.RoleSystem {
		return ErrInvalidTranscript
	}
	return nil
}
