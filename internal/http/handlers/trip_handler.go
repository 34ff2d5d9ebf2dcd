// README: Trip handlers (keyword-search dialogue, session reset, itinerary variants).
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pocket/internal/config"
	"pocket/internal/prompts"
	"pocket/internal/service"
)

type TripHandler struct {
	planner *service.TripPlanner
	cookie  config.CookieConfig
	timeout time.Duration
}

// NewTripHandler builds the handler. timeout bounds each completion; zero leaves
// it to the request context.
func NewTripHandler(planner *service.TripPlanner, cookie config.CookieConfig, timeout time.Duration) *TripHandler {
	if cookie.Name == "" {
		cookie.Name = "session_id"
	}
	return &TripHandler{planner: planner, cookie: cookie, timeout: timeout}
}

type keywordSearchReq struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id"`
}

type sessionReq struct {
	SessionID string `json:"session_id"`
}

func (h *TripHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

// sessionID picks the id from the body first, then the cookie.
func (h *TripHandler) sessionID(c *gin.Context, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	if id, err := c.Cookie(h.cookie.Name); err == nil {
		return strings.TrimSpace(id)
	}
	return ""
}

func (h *TripHandler) setSessionCookie(c *gin.Context, id string, maxAge int) {
	switch strings.ToLower(h.cookie.SameSite) {
	case "strict":
		c.SetSameSite(http.SameSiteStrictMode)
	case "none":
		c.SetSameSite(http.SameSiteNoneMode)
	default:
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(h.cookie.Name, id, maxAge, "/", "", h.cookie.Secure, true)
}

// KeywordSearch handles POST /keyword-search.
func (h *TripHandler) KeywordSearch(c *gin.Context) {
	var req keywordSearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(c, http.StatusBadRequest, "missing input")
		return
	}

	// a malformed body id is rejected, a malformed cookie id is replaced
	id := strings.TrimSpace(req.SessionID)
	if id != "" && !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid session_id")
		return
	}
	if id == "" {
		id = h.sessionID(c, "")
	}
	if !isValidID(id) {
		id = uuid.NewString()
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.planner.KeywordSearch(ctx, id, req.Input)
	if err != nil {
		writeTripError(c, err)
		return
	}

	h.setSessionCookie(c, res.SessionID, h.cookie.MaxAge)
	if res.Extraction.Structured() {
		writeJSON(c, http.StatusOK, res.Extraction.Data)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"response": res.Extraction.Text, "session_id": res.SessionID})
}

// ResetSession handles DELETE /keyword-search/session.
func (h *TripHandler) ResetSession(c *gin.Context) {
	var req sessionReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := h.sessionID(c, req.SessionID)
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing session_id")
		return
	}
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid session_id")
		return
	}

	if err := h.planner.ResetSession(c.Request.Context(), id); err != nil {
		writeTripError(c, err)
		return
	}
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

// Itinerary returns the handler for a fixed variant route such as /itinerary-slim.
func (h *TripHandler) Itinerary(variant prompts.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.planItinerary(c, variant)
	}
}

// ItineraryByVariant handles POST /itinerary/:variant.
func (h *TripHandler) ItineraryByVariant(c *gin.Context) {
	variant, err := prompts.ParseVariant(c.Param("variant"))
	if err != nil {
		writeTripError(c, err)
		return
	}
	h.planItinerary(c, variant)
}

func (h *TripHandler) planItinerary(c *gin.Context, variant prompts.Variant) {
	var req service.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.planner.PlanItinerary(ctx, variant, req)
	if err != nil {
		writeTripError(c, err)
		return
	}
	if res.Extraction.Structured() {
		writeJSON(c, http.StatusOK, res.Extraction.Data)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"response": res.Extraction.Text})
}
