// Package httpapi exposes the bridge's control-plane endpoints: token
// issuance, agent session start and the LLM/TTS vendor callbacks the Agora
// agent invokes during a live call.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/acumedic/agentbridge/internal/config"
	"github.com/acumedic/agentbridge/internal/convai"
	"github.com/acumedic/agentbridge/internal/observability"
	"github.com/acumedic/agentbridge/internal/proxy"
)

// LLMAdapter handles one chat-completion callback.
type LLMAdapter interface {
	HandleChat(ctx context.Context, req proxy.ChatRequest) (proxy.ChatCompletion, error)
}

// TTSAdapter handles one speech synthesis callback.
type TTSAdapter interface {
	HandleSynthesis(ctx context.Context, req proxy.SynthesisRequest) (proxy.SynthesisResponse, error)
}

// AgentOrchestrator starts an AI agent session in a channel.
type AgentOrchestrator interface {
	StartAgentSession(ctx context.Context, channel string, agentUID, userUID uint32) (convai.Session, error)
}

type Server struct {
	cfg     config.Config
	llm     LLMAdapter
	tts     TTSAdapter
	agents  AgentOrchestrator
	metrics *observability.Metrics
	log     zerolog.Logger
}

func New(cfg config.Config, llm LLMAdapter, tts TTSAdapter, agents AgentOrchestrator, metrics *observability.Metrics, log zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		llm:     llm,
		tts:     tts,
		agents:  agents,
		metrics: metrics,
		log:     log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/agora/token", s.handleRTCToken)
	r.Post("/api/agora/rtm-token", s.handleRTMToken)
	r.Post("/api/agora/start-agent", s.handleStartAgent)
	r.Post("/api/agora/llm", s.handleLLM)
	r.Post("/api/agora/tts", s.handleTTS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ready",
		"agent_configured": s.cfg.AgentCredentials() == nil,
	})
}

// logConfigError flags deployment misconfiguration distinctly from request
// errors; these need operator attention, not client fixes.
func (s *Server) logConfigError(err error, what string) {
	s.log.Error().Err(err).Str("kind", "configuration").Msg(what)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorResponse{Error: message, Details: details})
}
