package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/acumedic/agentbridge/internal/convai"
	"github.com/acumedic/agentbridge/internal/identity"
	"github.com/acumedic/agentbridge/internal/reliability"
)

type startAgentRequest struct {
	ChannelName string       `json:"channelName"`
	AgentUID    identity.UID `json:"agentUid"`
	UserUID     identity.UID `json:"userUid"`
}

type startAgentResponse struct {
	Success bool   `json:"success"`
	AgentID string `json:"agentId"`
}

func (s *Server) handleStartAgent(w http.ResponseWriter, r *http.Request) {
	var req startAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.AgentJoins.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "channelName, agentUid, and userUid are required", "")
		return
	}
	if strings.TrimSpace(req.ChannelName) == "" || req.AgentUID.IsEmpty() || req.UserUID.IsEmpty() {
		s.metrics.AgentJoins.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "channelName, agentUid, and userUid are required", "")
		return
	}

	if err := s.cfg.AgentCredentials(); err != nil {
		s.logConfigError(err, "agent control-plane credentials are not set")
		s.metrics.AgentJoins.WithLabelValues("misconfigured").Inc()
		respondError(w, http.StatusInternalServerError, "Server configuration error for AI agent.", "")
		return
	}

	agentUID, err := req.AgentUID.Value()
	if err != nil {
		s.metrics.AgentJoins.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "agentUid must be a positive integer", err.Error())
		return
	}
	userUID, err := req.UserUID.Value()
	if err != nil {
		s.metrics.AgentJoins.WithLabelValues("bad_request").Inc()
		respondError(w, http.StatusBadRequest, "userUid must be a positive integer", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.JoinTimeout)
	defer cancel()

	sess, err := s.agents.StartAgentSession(ctx, strings.TrimSpace(req.ChannelName), agentUID, userUID)
	if err != nil {
		var je *convai.JoinError
		switch {
		case errors.As(err, &je):
			// Mirror the platform's own status; the human call continues
			// without the agent.
			s.metrics.AgentJoins.WithLabelValues("rejected").Inc()
			respondError(w, je.StatusCode, "Failed to start AI agent", je.Body)
		case errors.Is(err, identity.ErrInvalidUID), errors.Is(err, convai.ErrEmptyChannel):
			s.metrics.AgentJoins.WithLabelValues("bad_request").Inc()
			respondError(w, http.StatusBadRequest, "invalid agent session request", err.Error())
		case reliability.IsTimeout(err):
			s.metrics.AgentJoins.WithLabelValues("timeout").Inc()
			respondError(w, http.StatusInternalServerError, "Timed out while starting AI agent.", "")
		default:
			s.log.Error().Err(err).Str("channel", req.ChannelName).Msg("agent join failed")
			s.metrics.AgentJoins.WithLabelValues("error").Inc()
			respondError(w, http.StatusInternalServerError, "Internal server error while starting AI agent.", "")
		}
		return
	}

	s.metrics.AgentJoins.WithLabelValues("joined").Inc()
	respondJSON(w, http.StatusOK, startAgentResponse{Success: true, AgentID: sess.AgentID})
}
