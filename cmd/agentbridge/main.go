package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/acumedic/agentbridge/internal/config"
	"github.com/acumedic/agentbridge/internal/convai"
	"github.com/acumedic/agentbridge/internal/gemini"
	"github.com/acumedic/agentbridge/internal/httpapi"
	"github.com/acumedic/agentbridge/internal/logging"
	"github.com/acumedic/agentbridge/internal/observability"
	"github.com/acumedic/agentbridge/internal/proxy"
)

func main() {
	logger := logging.New("agentbridge")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()

	// The callback handlers refuse requests while generation credentials
	// are missing, so the adapters only exist when a key is present.
	var (
		llm httpapi.LLMAdapter
		tts httpapi.TTSAdapter
	)
	if cfg.GenerationCredentials() == nil {
		gen, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:    cfg.GeminiAPIKey,
			ChatModel: cfg.ChatModel,
			TTSModel:  cfg.TTSModel,
			TTSVoice:  cfg.TTSVoice,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini client init failed")
		}
		llm = proxy.NewLLMAdapter(gen, cfg.ChatModel)
		tts = proxy.NewTTSAdapter(gen, cfg.TTSVoice)
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set; LLM and TTS callbacks disabled")
	}

	controlPlane := convai.NewClient(convai.ClientConfig{
		BaseURL:        cfg.ConvoAIBaseURL,
		AppID:          cfg.AgoraAppID,
		CustomerID:     cfg.AgoraCustomerID,
		CustomerSecret: cfg.AgoraCustomerSecret,
		Timeout:        cfg.JoinTimeout,
	})
	agents := convai.NewOrchestrator(convai.OrchestratorConfig{
		AppID:           cfg.AgoraAppID,
		AppCertificate:  cfg.AgoraAppCertificate,
		PublicBaseURL:   cfg.PublicBaseURL,
		VendorAPIKey:    cfg.CallbackAPIKey,
		SystemPrompt:    cfg.AgentSystemPrompt,
		GreetingMessage: cfg.AgentGreeting,
		FailureMessage:  cfg.AgentFailureMessage,
		ASRLanguage:     cfg.ASRLanguage,
		MaxHistory:      cfg.AgentMaxHistory,
		IdleTimeout:     cfg.AgentIdleTimeout,
		TokenTTL:        cfg.TokenTTL,
	}, controlPlane, logger)

	api := httpapi.New(cfg, llm, tts, agents, metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Info().Str("addr", cfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	logger.Info().Msg("shutdown complete")
}
