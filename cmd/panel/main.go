package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"hn-distill/internal/adapters/hn"
	"hn-distill/internal/adapters/llm"
	"hn-distill/internal/adapters/panel"
	"hn-distill/internal/adapters/repo"
	"hn-distill/internal/adapters/settings"
	"hn-distill/internal/domain"
	"hn-distill/internal/infra/config"
	"hn-distill/internal/infra/db"
	httpinfra "hn-distill/internal/infra/http"
	logpkg "hn-distill/internal/infra/log"
	"hn-distill/internal/infra/metrics"
	"hn-distill/internal/usecase/analysis"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	settingsRepo := settings.NewRedis(redisClient)

	var history domain.HistoryRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("panel: нет подключения к БД")
		}
		defer pool.Close()
		pg := repo.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("panel: не удалось подготовить схему журнала")
		}
		history = pg
	} else {
		logger.Info().Msg("panel: PG_DSN пустой, журнал анализов отключён")
	}

	source := hn.NewClient(cfg.HN.BaseURL, cfg.HN.Timeout)

	llmCfg := llm.Config{
		AnthropicBaseURL: cfg.LLM.AnthropicBaseURL,
		AnthropicModel:   cfg.LLM.AnthropicModel,
		OpenAIBaseURL:    cfg.LLM.OpenAIBaseURL,
		OpenAIModel:      cfg.LLM.OpenAIModel,
		Timeout:          cfg.LLM.Timeout,
		MaxTokens:        cfg.LLM.MaxTokens,
	}
	clients := func(apiKey string) (domain.LLMClient, error) {
		return llm.Select(apiKey, llmCfg)
	}

	hub := panel.NewHub(logger.With().Str("component", "events").Logger())
	svc := analysis.NewService(source, settingsRepo, clients, hub, history, logger.With().Str("component", "analysis").Logger())

	server := httpinfra.NewServer(logger)
	handler := panel.NewHandler(svc, settingsRepo, history, hub, logger.With().Str("component", "panel").Logger(), cfg.History.Limit)
	handler.Register(server.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("panel: ошибка остановки сервера")
		}
	}()

	if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("panel: сервер остановился с ошибкой")
	}
	logger.Info().Msg("panel: сервис остановлен")
}
