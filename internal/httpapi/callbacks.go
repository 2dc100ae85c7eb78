package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/acumedic/agentbridge/internal/proxy"
	"github.com/acumedic/agentbridge/internal/reliability"
)

func (s *Server) handleLLM(w http.ResponseWriter, r *http.Request) {
	var req proxy.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.CallbackRequests.WithLabelValues("llm", "bad_request").Inc()
		respondError(w, http.StatusBadRequest, "invalid chat completion request", err.Error())
		return
	}

	if err := s.cfg.GenerationCredentials(); err != nil {
		s.logConfigError(err, "generation credentials are not set")
		s.metrics.CallbackRequests.WithLabelValues("llm", "misconfigured").Inc()
		respondError(w, http.StatusInternalServerError, "Server configuration error", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GenerateTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.HandleChat(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, proxy.ErrInvalidRequest):
			s.metrics.CallbackRequests.WithLabelValues("llm", "bad_request").Inc()
			respondError(w, http.StatusBadRequest, "invalid chat completion request", err.Error())
		case reliability.IsTimeout(err):
			s.metrics.CallbackRequests.WithLabelValues("llm", "timeout").Inc()
			respondError(w, http.StatusInternalServerError, "An error occurred while processing the LLM request.", "generation timed out")
		default:
			s.log.Error().Err(err).Msg("llm callback failed")
			s.metrics.CallbackRequests.WithLabelValues("llm", "error").Inc()
			respondError(w, http.StatusInternalServerError, "An error occurred while processing the LLM request.", err.Error())
		}
		return
	}
	s.metrics.ObserveGenerationLatency(time.Since(start))

	s.metrics.CallbackRequests.WithLabelValues("llm", "ok").Inc()
	respondJSON(w, http.StatusOK, resp)
}

// ttsErrorResponse keeps the correlation id on failures so the platform can
// still match the error to the triggering turn.
type ttsErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	ResponseID string `json:"response_id,omitempty"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req proxy.SynthesisRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.CallbackRequests.WithLabelValues("tts", "bad_request").Inc()
		respondJSON(w, http.StatusBadRequest, ttsErrorResponse{Error: "invalid synthesis request", Details: err.Error()})
		return
	}

	if err := s.cfg.GenerationCredentials(); err != nil {
		s.logConfigError(err, "generation credentials are not set")
		s.metrics.CallbackRequests.WithLabelValues("tts", "misconfigured").Inc()
		respondJSON(w, http.StatusInternalServerError, ttsErrorResponse{Error: "Server configuration error", ResponseID: req.ResponseID})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GenerateTimeout)
	defer cancel()

	resp, err := s.tts.HandleSynthesis(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, proxy.ErrInvalidRequest):
			s.metrics.CallbackRequests.WithLabelValues("tts", "bad_request").Inc()
			respondJSON(w, http.StatusBadRequest, ttsErrorResponse{Error: "invalid synthesis request", Details: err.Error(), ResponseID: req.ResponseID})
		case reliability.IsTimeout(err):
			s.metrics.CallbackRequests.WithLabelValues("tts", "timeout").Inc()
			respondJSON(w, http.StatusInternalServerError, ttsErrorResponse{Error: "An error occurred while processing the TTS request.", Details: "synthesis timed out", ResponseID: req.ResponseID})
		default:
			s.log.Error().Err(err).Msg("tts callback failed")
			s.metrics.CallbackRequests.WithLabelValues("tts", "error").Inc()
			respondJSON(w, http.StatusInternalServerError, ttsErrorResponse{Error: "An error occurred while processing the TTS request.", Details: err.Error(), ResponseID: req.ResponseID})
		}
		return
	}

	s.metrics.CallbackRequests.WithLabelValues("tts", "ok").Inc()
	s.metrics.SynthesisAudioBytes.Observe(float64(len(resp.Audio.Content)))
	respondJSON(w, http.StatusOK, resp)
}
