// README: API gateway; builds the gin engine and delegates to the trip planner.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pocket/internal/config"
	"pocket/internal/http/handlers"
	"pocket/internal/http/middleware"
	"pocket/internal/service"
)

type ServerDeps struct {
	Planner *service.TripPlanner
	Config  config.Config
	Logger  *zap.Logger
}

type Server struct {
	planner *service.TripPlanner
	cfg     config.Config
	logger  *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		planner: deps.Planner,
		cfg:     deps.Config,
		logger:  logger,
	}
}

// Routes returns the HTTP handler with middleware applied.
func (s *Server) Routes() http.Handler {
	engine := gin.New()
	engine.Use(
		middleware.Recovery(s.logger),
		middleware.Logging(s.logger),
		middleware.CORS(s.cfg.HTTP.CORS),
		middleware.NewRateLimiter(s.cfg.HTTP.RateLimit).Limit(),
	)
	registerRoutes(engine, handlers.NewTripHandler(s.planner, s.cfg.HTTP.Cookie, s.cfg.LLM.Timeout))
	return engine
}
