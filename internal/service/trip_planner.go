package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pocket/internal/ai"
	"pocket/internal/modules/session"
	"pocket/internal/prompts"
)

// ErrInvalidRequest marks input the caller has to fix.
var ErrInvalidRequest = errors.New("invalid request")

// TripRequest asks for an itinerary built from candidate places.
type TripRequest struct {
	Days        int               `json:"days"`
	City        string            `json:"city"`
	Country     string            `json:"country"`
	Choices     []json.RawMessage `json:"choices"`
	StartTime   string            `json:"start_time,omitempty"`
	EndTime     string            `json:"end_time,omitempty"`
	EndLocation string            `json:"end_location,omitempty"`
	Preferences string            `json:"preferences,omitempty"`
	Language    string            `json:"language,omitempty"`
}

// Normalize trims fields, defaults Days to 1 and checks required fields.
func (r *TripRequest) Normalize() error {
	r.City = strings.TrimSpace(r.City)
	r.Country = strings.TrimSpace(r.Country)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	r.EndLocation = strings.TrimSpace(r.EndLocation)
	r.Preferences = strings.TrimSpace(r.Preferences)
	r.Language = strings.TrimSpace(r.Language)

	if r.Days == 0 {
		r.Days = 1
	}
	switch {
	case r.Days < 1:
		return fmt.Errorf("%w: days must be at least 1", ErrInvalidRequest)
	case r.City == "":
		return fmt.Errorf("%w: missing city", ErrInvalidRequest)
	case r.Country == "":
		return fmt.Errorf("%w: missing country", ErrInvalidRequest)
	case r.Choices == nil:
		return fmt.Errorf("%w: missing choices", ErrInvalidRequest)
	}
	return nil
}

func (r TripRequest) promptInput() prompts.ItineraryInput {
	return prompts.ItineraryInput{
		Days:        r.Days,
		City:        r.City,
		Country:     r.Country,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		EndLocation: r.EndLocation,
		Preferences: r.Preferences,
		Language:    r.Language,
		Choices:     r.Choices,
	}
}

// KeywordResult is the outcome of one keyword-search turn.
type KeywordResult struct {
	SessionID  string
	Extraction ai.Extraction
	Turns      int
}

// ItineraryResult is the outcome of an itinerary request.
type ItineraryResult struct {
	Variant    prompts.Variant
	Extraction ai.Extraction
}

// TripPlanner runs the keyword-search dialogue and itinerary generation.
type TripPlanner struct {
	provider ai.LLMProvider
	sessions session.Store
	models   map[prompts.Variant]string
	locks    keyLocks
	logger   *zap.Logger
}

// NewTripPlanner wires a planner. models holds optional per-variant model overrides.
func NewTripPlanner(provider ai.LLMProvider, sessions session.Store, models map[prompts.Variant]string, logger *zap.Logger) *TripPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripPlanner{
		provider: provider,
		sessions: sessions,
		models:   models,
		logger:   logger,
	}
}

// KeywordSearch adds one user turn to the session's dialogue and returns what
// the assistant extracted so far. The session is only saved when the
// completion succeeds, so a failed call leaves the stored transcript as it was.
// Calls for the same session id run one at a time.
func (p *TripPlanner) KeywordSearch(ctx context.Context, sessionID, input string) (KeywordResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return KeywordResult{}, fmt.Errorf("%w: missing session id", ErrInvalidRequest)
	}
	if strings.TrimSpace(input) == "" {
		return KeywordResult{}, fmt.Errorf("%w: missing input", ErrInvalidRequest)
	}
	res := KeywordResult{SessionID: sessionID}
	log := p.logger.With(zap.String("session_id", sessionID))

	unlock, err := p.locks.lock(ctx, sessionID)
	if err != nil {
		log.Warn("gave up waiting for session", zap.Error(err))
		return res, fmt.Errorf("wait for session %s: %w", sessionID, err)
	}
	defer unlock()

	sess, err := p.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		log.Error("load session failed", zap.Error(err))
		return res, fmt.Errorf("load session: %w", err)
	}

	sess.Append(ai.UserTurn(prompts.KeywordUserTurn(input)))
	reply, err := p.provider.Complete(ctx, sess.Transcript)
	if err != nil {
		log.Error("keyword completion failed", zap.String("kind", string(ai.KindOf(err))), zap.Error(err))
		return res, err
	}

	sess.Append(ai.AssistantTurn(reply))
	if err := p.sessions.Save(ctx, sess); err != nil {
		log.Error("save session failed", zap.Error(err))
		return res, fmt.Errorf("save session: %w", err)
	}
	res.Turns = len(sess.Transcript)

	ext, err := ai.Extract(reply)
	if err != nil {
		log.Error("keyword extraction failed", zap.Error(err))
		return res, err
	}
	res.Extraction = ext
	log.Info("keyword search turn",
		zap.Int("turns", res.Turns),
		zap.Bool("structured", ext.Structured()))
	return res, nil
}

// ResetSession forgets the dialogue for sessionID.
func (p *TripPlanner) ResetSession(ctx context.Context, sessionID string) error {
	unlock, err := p.locks.lock(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("wait for session %s: %w", sessionID, err)
	}
	defer unlock()
	return p.sessions.Delete(ctx, sessionID)
}

// PlanItinerary asks the model for a day-by-day plan. It keeps no state.
func (p *TripPlanner) PlanItinerary(ctx context.Context, variant prompts.Variant, req TripRequest) (ItineraryResult, error) {
	res := ItineraryResult{Variant: variant}
	spec, err := prompts.SpecFor(variant)
	if err != nil {
		return res, err
	}
	if m := p.models[variant]; m != "" {
		spec.Model = m
	}
	if err := req.Normalize(); err != nil {
		return res, err
	}
	userTurn, err := prompts.ItineraryUserTurn(req.promptInput())
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	transcript := []ai.Turn{
		ai.SystemTurn(prompts.ItinerarySystemPrompt(spec)),
		ai.UserTurn(userTurn),
	}
	log := p.logger.With(zap.String("variant", string(variant)), zap.String("city", req.City), zap.Int("days", req.Days))

	reply, err := p.provider.Complete(ai.WithModel(ctx, spec.Model), transcript)
	if err != nil {
		log.Error("itinerary completion failed", zap.String("kind", string(ai.KindOf(err))), zap.Error(err))
		return res, err
	}
	ext, err := ai.Extract(reply)
	if err != nil {
		log.Error("itinerary extraction failed", zap.Error(err))
		return res, err
	}
	res.Extraction = ext
	log.Info("itinerary planned", zap.Bool("structured", ext.Structured()))
	return res, nil
}

// keyLocks serializes work per key. Each key gets its own one-slot channel,
// dropped again once nobody holds or waits for it.
type keyLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	slot chan struct{}
	refs int
}

// lock waits for key until it is free or ctx is done. The returned func
// releases the key and must be called exactly once.
func (k *keyLocks) lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*lockEntry)
	}
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{slot: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
		return func() {
			<-e.slot
			k.release(key, e)
		}, nil
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}
}

func (k *keyLocks) release(key string, e *lockEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}
