// README: HTTP route registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pocket/internal/http/handlers"
	"pocket/internal/prompts"
)

func registerRoutes(r gin.IRouter, trip *handlers.TripHandler) {
	r.POST("/keyword-search", trip.KeywordSearch)
	r.DELETE("/keyword-search/session", trip.ResetSession)

	r.POST("/itinerary", trip.Itinerary(prompts.VariantFull))
	r.POST("/itinerary-slim", trip.Itinerary(prompts.VariantSlim))
	r.POST("/itinerary-mini", trip.Itinerary(prompts.VariantMini))
	r.POST("/itinerary-changed", trip.Itinerary(prompts.VariantChanged))
	r.POST("/itinerary/:variant", trip.ItineraryByVariant)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
}
