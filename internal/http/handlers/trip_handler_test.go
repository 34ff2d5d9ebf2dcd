// README: Trip handler tests (session cookie flow, validation, error details, itinerary variants).
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pocket/internal/ai"
	"pocket/internal/config"
	"pocket/internal/http/handlers"
	"pocket/internal/modules/session"
	"pocket/internal/prompts"
	"pocket/internal/service"
)

// buildTestRouter wires a gin engine with the trip handler over an in-memory store.
func buildTestRouter(respond ai.Responder) (*gin.Engine, *ai.MockProvider, session.Store) {
	gin.SetMode(gin.TestMode)
	provider := ai.NewMockProvider(respond)
	store := session.NewMemoryStore(prompts.KeywordSystemPrompt(), time.Hour, 0)
	planner := service.NewTripPlanner(provider, store, nil, zap.NewNop())
	h := handlers.NewTripHandler(planner, config.CookieConfig{Name: "session_id"}, 5*time.Second)

	r := gin.New()
	r.POST("/keyword-search", h.KeywordSearch)
	r.DELETE("/keyword-search/session", h.ResetSession)
	r.POST("/itinerary", h.Itinerary(prompts.VariantFull))
	r.POST("/itinerary-slim", h.Itinerary(prompts.VariantSlim))
	r.POST("/itinerary/:variant", h.ItineraryByVariant)
	return r, provider, store
}

func doRequest(r *gin.Engine, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

const parisReply = "```json\n{\"city\": \"Paris\", \"country\": \"France\", \"countryCode\": \"fr\", \"days\": 3, \"language\": \"English\"}\n```"

// TestKeywordSearch_NewSession verifies a fresh visitor gets an id, a cookie and the extracted trip.
func TestKeywordSearch_NewSession(t *testing.T) {
	r, _, store := buildTestRouter(ai.Replies(parisReply))

	w := doRequest(r, http.MethodPost, "/keyword-search", map[string]any{"input": "I want to visit Paris for 3 days"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["city"] != "Paris" || body["days"] != float64(3) {
		t.Fatalf("unexpected body: %v", body)
	}

	cookie := sessionCookie(w)
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected a session_id cookie")
	}
	if !cookie.HttpOnly {
		t.Errorf("session cookie should be HttpOnly")
	}

	s, err := store.GetOrCreate(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if len(s.Transcript) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(s.Transcript))
	}
}

// TestKeywordSearch_CookieContinuesDialogue verifies the cookie keeps the conversation going.
func TestKeywordSearch_CookieContinuesDialogue(t *testing.T) {
	r, provider, _ := buildTestRouter(ai.Replies("How many days?", parisReply))

	w := doRequest(r, http.MethodPost, "/keyword-search", map[string]any{"input": "Paris"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["response"] != "How many days?" {
		t.Fatalf("expected prose response, got %v", body)
	}
	cookie := sessionCookie(w)
	if body["session_id"] != cookie.Value {
		t.Fatalf("body session_id %v does not match cookie %q", body["session_id"], cookie.Value)
	}

	w = doRequest(r, http.MethodPost, "/keyword-search", map[string]any{"input": "3 days"}, &http.Cookie{Name: "session_id", Value: cookie.Value})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	calls := provider.Calls()
	if len(calls) != 2 || len(calls[1]) != 4 {
		t.Fatalf("second call should carry the earlier turns, got %d calls", len(calls))
	}
}

// TestKeywordSearch_BodyIDWins verifies the body session_id overrides the cookie.
func TestKeywordSearch_BodyIDWins(t *testing.T) {
	r, _, store := buildTestRouter(ai.Replies("Which city?"))

	w := doRequest(r, http.MethodPost, "/keyword-search",
		map[string]any{"input": "hello", "session_id": "from-body"},
		&http.Cookie{Name: "session_id", Value: "from-cookie"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if c := sessionCookie(w); c == nil || c.Value != "from-body" {
		t.Fatalf("expected cookie from-body, got %+v", c)
	}
	s, _ := store.GetOrCreate(context.Background(), "from-cookie")
	if len(s.Transcript) != 1 {
		t.Fatalf("cookie session should be untouched")
	}
}

// TestKeywordSearch_BadCookieStartsOver verifies a malformed cookie id is replaced, not rejected.
func TestKeywordSearch_BadCookieStartsOver(t *testing.T) {
	r, provider, _ := buildTestRouter(ai.Replies("Which city?"))

	w := doRequest(r, http.MethodPost, "/keyword-search", map[string]any{"input": "hello"},
		&http.Cookie{Name: "session_id", Value: "../bad"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	cookie := sessionCookie(w)
	if cookie == nil || cookie.Value == "" || cookie.Value == "../bad" {
		t.Fatalf("expected a fresh session cookie, got %+v", cookie)
	}
	if decode(t, w)["session_id"] != cookie.Value {
		t.Fatalf("body session_id should match the new cookie")
	}
	if len(provider.Calls()) != 1 {
		t.Fatalf("expected one completion, got %d", len(provider.Calls()))
	}
}

func TestKeywordSearch_BadRequests(t *testing.T) {
	r, provider, _ := buildTestRouter(nil)

	tests := []struct {
		name string
		body any
	}{
		{"blank input", map[string]any{"input": "  "}},
		{"missing input", map[string]any{"session_id": "abc"}},
		{"bad session id", map[string]any{"input": "Paris", "session_id": "../etc/passwd"}},
		{"not json", "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/keyword-search", tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if decode(t, w)["detail"] == "" {
				t.Errorf("expected a detail message")
			}
		})
	}
	if len(provider.Calls()) != 0 {
		t.Fatalf("provider must not be called for invalid requests")
	}
}

// TestKeywordSearch_ErrorDetails verifies each failure kind maps to its 500 detail.
func TestKeywordSearch_ErrorDetails(t *testing.T) {
	tests := []struct {
		name    string
		respond ai.Responder
		detail  string
	}{
		{"empty", ai.Fail(&ai.Error{Kind: ai.KindEmptyResponse, Message: "no choices"}), "Failed to get a response from the assistant"},
		{"provider", ai.Fail(&ai.Error{Kind: ai.KindProvider, Message: "status 502"}), "An error occurred with the completion provider"},
		{"malformed", ai.Replies("```json\n{oops}\n```"), "Failed to parse JSON response from assistant"},
		{"unexpected", ai.Fail(&ai.Error{Kind: ai.KindUnexpected, Message: "boom"}), "An unexpected error occurred: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := buildTestRouter(tt.respond)
			w := doRequest(r, http.MethodPost, "/keyword-search", map[string]any{"input": "Paris", "session_id": "s1"}, nil)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", w.Code)
			}
			detail, _ := decode(t, w)["detail"].(string)
			if !strings.HasPrefix(detail, tt.detail) {
				t.Fatalf("expected detail %q, got %q", tt.detail, detail)
			}
			if sessionCookie(w) != nil {
				t.Errorf("failed turns should not set the cookie")
			}
		})
	}
}

func TestResetSession(t *testing.T) {
	r, _, store := buildTestRouter(nil)
	cookie := &http.Cookie{Name: "session_id", Value: "to-reset"}

	if w := doRequest(r, http.MethodPost, "/keyword-search", map[string]any{"input": "Rome"}, cookie); w.Code != http.StatusOK {
		t.Fatalf("seed: expected 200, got %d", w.Code)
	}

	w := doRequest(r, http.MethodDelete, "/keyword-search/session", nil, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if c := sessionCookie(w); c == nil || c.MaxAge >= 0 {
		t.Fatalf("expected the cookie to be cleared, got %+v", c)
	}
	s, _ := store.GetOrCreate(context.Background(), "to-reset")
	if len(s.Transcript) != 1 {
		t.Fatalf("expected a fresh session after reset")
	}

	if w := doRequest(r, http.MethodDelete, "/keyword-search/session", map[string]any{"session_id": "never-seen"}, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodDelete, "/keyword-search/session", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without any session id, got %d", w.Code)
	}
}

const tokyoReply = "```json\n{\"itineraryItems\": [{\"day\": 1, \"slots\": []}, {\"day\": 2, \"slots\": []}]}\n```"

func TestItinerary(t *testing.T) {
	r, provider, _ := buildTestRouter(ai.Replies(tokyoReply))

	w := doRequest(r, http.MethodPost, "/itinerary", map[string]any{
		"days":    2,
		"city":    "Tokyo",
		"country": "Japan",
		"choices": []map[string]any{{"title": "Senso-ji", "category": "activity"}},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	items, ok := decode(t, w)["itineraryItems"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 itinerary items, got %s", w.Body.String())
	}
	if sessionCookie(w) != nil {
		t.Errorf("itinerary is stateless and should not set a cookie")
	}

	calls := provider.Calls()
	if !strings.Contains(calls[0][1].Content, `The JSON file is [{"category":"activity","title":"Senso-ji"}].`) {
		t.Fatalf("choices not embedded: %q", calls[0][1].Content)
	}
}

func TestItinerary_Variants(t *testing.T) {
	r, provider, _ := buildTestRouter(ai.Replies("Sorry, I need more places."))
	body := map[string]any{"city": "Tokyo", "country": "Japan", "choices": []any{}}

	w := doRequest(r, http.MethodPost, "/itinerary-slim", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decode(t, w)["response"] != "Sorry, I need more places." {
		t.Fatalf("expected prose response, got %s", w.Body.String())
	}

	if w := doRequest(r, http.MethodPost, "/itinerary/changed", body, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	calls := provider.Calls()
	if !strings.Contains(calls[0][0].Content, "at most 3") {
		t.Errorf("slim prompt should cap slots")
	}
	if !strings.Contains(calls[1][0].Content, "timeIntervals") {
		t.Errorf("changed prompt should ask for timeIntervals")
	}

	if w := doRequest(r, http.MethodPost, "/itinerary/huge", body, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown variant, got %d", w.Code)
	}
}

func TestItinerary_BadRequests(t *testing.T) {
	r, provider, _ := buildTestRouter(nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing city", map[string]any{"country": "Japan", "choices": []any{}}},
		{"missing choices", map[string]any{"city": "Tokyo", "country": "Japan"}},
		{"negative days", map[string]any{"days": -2, "city": "Tokyo", "country": "Japan", "choices": []any{}}},
		{"days not a number", map[string]any{"days": "two", "city": "Tokyo", "country": "Japan", "choices": []any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doRequest(r, http.MethodPost, "/itinerary", tt.body, nil); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
	if len(provider.Calls()) != 0 {
		t.Fatalf("provider must not be called for invalid requests")
	}
}
