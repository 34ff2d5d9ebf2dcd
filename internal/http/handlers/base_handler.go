// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pocket/internal/ai"
	"pocket/internal/modules/session"
	"pocket/internal/prompts"
	"pocket/internal/service"
)

const (
	detailEmptyResponse = "Failed to get a response from the assistant"
	detailProvider      = "An error occurred with the completion provider"
	detailMalformedJSON = "Failed to parse JSON response from assistant"
	detailUnexpected    = "An unexpected error occurred: "
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// isValidID accepts uuids and similar client-chosen ids: up to 64 letters,
// digits, '-' or '_'.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Detail: msg})
}

// writeTripError maps planner errors onto status codes and details.
func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, prompts.ErrUnknownVariant):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, aiErrorDetail(err))
	}
}

func aiErrorDetail(err error) string {
	switch ai.KindOf(err) {
	case ai.KindEmptyResponse:
		return detailEmptyResponse
	case ai.KindProvider:
		return detailProvider
	case ai.KindMalformedJSON:
		return detailMalformedJSON
	default:
		return detailUnexpected + err.Error()
	}
}
