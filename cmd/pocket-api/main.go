// README: Entry point; loads config, wires the provider, session store and planner, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pocket/internal/ai"
	"pocket/internal/config"
	httptransport "pocket/internal/http"
	"pocket/internal/infra"
	"pocket/internal/modules/session"
	"pocket/internal/prompts"
	"pocket/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := newProvider(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal("llm provider init", zap.Error(err))
	}
	defer closeProvider()

	var backends session.Backends
	switch cfg.Session.Backend {
	case config.BackendRedis:
		backends.Redis, err = infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("redis init", zap.Error(err))
		}
		defer backends.Redis.Close()
	case config.BackendPostgres:
		backends.DB, err = infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatal("postgres init", zap.Error(err))
		}
		defer backends.DB.Close()
	}

	store, err := session.NewStore(cfg.Session, prompts.KeywordSystemPrompt(), backends)
	if err != nil {
		logger.Fatal("session store init", zap.Error(err))
	}
	if pg, ok := store.(*session.PostgresStore); ok {
		go pg.RunPruner(ctx, cfg.Session.PruneInterval, logger)
	}

	models, err := variantModels(cfg.Itinerary)
	if err != nil {
		logger.Fatal("itinerary config", zap.Error(err))
	}
	planner := service.NewTripPlanner(provider, store, models, logger)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Planner: planner,
		Config:  cfg,
		Logger:  logger,
	})
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting pocket api",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("session_backend", cfg.Session.Backend))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newProvider(ctx context.Context, cfg config.LLMConfig) (ai.LLMProvider, func(), error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return ai.NewOpenAIProvider(ai.OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}), func() {}, nil
	case config.ProviderGemini:
		var temperature float32 = 0.4
		if cfg.Temperature != nil {
			temperature = float32(*cfg.Temperature)
		}
		p, err := ai.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, temperature)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	case config.ProviderMock:
		return ai.NewMockProvider(nil), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func variantModels(cfg config.ItineraryConfig) (map[prompts.Variant]string, error) {
	models := make(map[prompts.Variant]string, len(cfg.Models))
	for name, model := range cfg.Models {
		v, err := prompts.ParseVariant(name)
		if err != nil {
			return nil, fmt.Errorf("itinerary.models.%s: %w", name, err)
		}
		models[v] = model
	}
	return models, nil
}
