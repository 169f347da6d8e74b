package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/govardhan-06/voyage-ai/internal/cache"
	"github.com/govardhan-06/voyage-ai/internal/config"
	"github.com/govardhan-06/voyage-ai/internal/httpapi"
	"github.com/govardhan-06/voyage-ai/internal/model"
	"github.com/govardhan-06/voyage-ai/internal/planner"
	"github.com/govardhan-06/voyage-ai/internal/store"
	"github.com/govardhan-06/voyage-ai/internal/tools"
	"github.com/govardhan-06/voyage-ai/internal/travel"
	"github.com/govardhan-06/voyage-ai/internal/workflow"
)

func main() {
	logger := log.New(os.Stdout, "voyage ", log.Ldate|log.Ltime|log.Lmicroseconds|log.LUTC)
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	st, err := store.NewGormStore(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatalf("failed to initialize store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Printf("store close error: %v", err)
		}
	}()

	llmClient := &http.Client{Timeout: cfg.LLMTimeout}
	registry := model.NewRegistry()
	if cfg.GeminiAPIKey != "" {
		registry.Register("gemini", model.NewGeminiProvider(cfg.GeminiAPIKey, model.WithGeminiHTTPClient(llmClient)))
	}
	if cfg.OpenAIAPIKey != "" {
		registry.Register("openai", model.NewOpenAIProvider(cfg.OpenAIAPIKey, model.WithOpenAIHTTPClient(llmClient)))
	}
	provider, ok := registry.Get(cfg.LLMProvider)
	if !ok {
		logger.Fatalf("llm provider %q is not configured", cfg.LLMProvider)
	}

	var toolCache cache.Cache
	if cfg.RedisAddr != "" {
		toolCache = cache.NewRedis(logger, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	} else {
		toolCache = cache.NewMemory()
	}

	travelAPI := travel.NewClient(logger, cfg.AmadeusAPIKey, cfg.AmadeusAPISecret, cfg.AmadeusBaseURL)
	dispatcher := tools.NewDispatcher(logger, travelAPI, toolCache)

	engine := workflow.NewEngine(
		logger,
		st,
		st,
		planner.NewSlotExtractor(logger, provider, cfg.LLMModel),
		planner.NewPlanningLoop(logger, provider, cfg.LLMModel, dispatcher),
		planner.NewComposer(logger, provider, cfg.LLMModel),
		planner.NewFinalizer(logger, st),
	)

	srv := httpapi.NewServer(logger, cfg.HTTPAddr, engine, st)

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server crashed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
}
