package httpapi

import (
	"net/http"
	"strings"

	"github.com/acumedic/agentbridge/internal/agoratoken"
	"github.com/acumedic/agentbridge/internal/identity"
)

type rtcTokenRequest struct {
	ChannelName string       `json:"channelName"`
	UID         identity.UID `json:"uid"`
}

type rtmTokenRequest struct {
	UID string `json:"uid"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleRTCToken(w http.ResponseWriter, r *http.Request) {
	var req rtcTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.TokenRequests.WithLabelValues("rtc", "bad_request").Inc()
		respondError(w, http.StatusBadRequest, "channelName and uid are required", "")
		return
	}
	if strings.TrimSpace(req.ChannelName) == "" || req.UID.IsEmpty() {
		s.metrics.TokenRequests.WithLabelValues("rtc", "bad_request").Inc()
		respondError(w, http.StatusBadRequest, "channelName and uid are required", "")
		return
	}

	if err := s.cfg.TokenCredentials(); err != nil {
		s.logConfigError(err, "agora credentials are not set")
		s.metrics.TokenRequests.WithLabelValues("rtc", "misconfigured").Inc()
		respondError(w, http.StatusInternalServerError, "Server configuration error", "")
		return
	}

	uid, err := req.UID.Value()
	if err != nil {
		s.metrics.TokenRequests.WithLabelValues("rtc", "bad_request").Inc()
		respondError(w, http.StatusBadRequest, "uid must be a positive integer", err.Error())
		return
	}

	token, err := agoratoken.BuildRTCToken(
		s.cfg.AgoraAppID, s.cfg.AgoraAppCertificate,
		strings.TrimSpace(req.ChannelName), uid, agoratoken.RolePublisher, s.cfg.TokenTTL,
	)
	if err != nil {
		s.log.Error().Err(err).Str("channel", req.ChannelName).Msg("rtc token generation failed")
		s.metrics.TokenRequests.WithLabelValues("rtc", "error").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	s.metrics.TokenRequests.WithLabelValues("rtc", "ok").Inc()
	respondJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleRTMToken(w http.ResponseWriter, r *http.Request) {
	var req rtmTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.TokenRequests.WithLabelValues("rtm", "bad_request").Inc()
		respondError(w, http.StatusBadRequest, "uid is required", "")
		return
	}
	if strings.TrimSpace(req.UID) == "" {
		s.metrics.TokenRequests.WithLabelValues("rtm", "bad_request").Inc()
		respondError(w, http.StatusBadRequest, "uid is required", "")
		return
	}

	if err := s.cfg.TokenCredentials(); err != nil {
		s.logConfigError(err, "agora credentials are not set")
		s.metrics.TokenRequests.WithLabelValues("rtm", "misconfigured").Inc()
		respondError(w, http.StatusInternalServerError, "Server configuration error", "")
		return
	}

	token, err := agoratoken.BuildRTMToken(s.cfg.AgoraAppID, s.cfg.AgoraAppCertificate, strings.TrimSpace(req.UID), s.cfg.TokenTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("rtm token generation failed")
		s.metrics.TokenRequests.WithLabelValues("rtm", "error").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to generate RTM token", "")
		return
	}

	s.metrics.TokenRequests.WithLabelValues("rtm", "ok").Inc()
	respondJSON(w, http.StatusOK, tokenResponse{Token: token})
}
