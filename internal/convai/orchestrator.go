package convai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/acumedic/agentbridge/internal/agoratoken"
	"github.com/acumedic/agentbridge/internal/identity"
)

var ErrEmptyChannel = errors.New("channel name is required")

// ControlPlane is the platform join API the orchestrator drives.
type ControlPlane interface {
	JoinAgent(ctx context.Context, req JoinRequest) (JoinResponse, error)
}

// OrchestratorConfig carries the per-process settings for agent sessions.
// All fields are read-only after startup.
type OrchestratorConfig struct {
	AppID          string
	AppCertificate string

	// PublicBaseURL is the externally reachable base for the LLM and TTS
	// callback URLs embedded in the join request.
	PublicBaseURL string

	// VendorAPIKey is the credential the platform presents when it calls
	// back into the vendor URLs.
	VendorAPIKey string

	SystemPrompt    string
	GreetingMessage string
	FailureMessage  string
	ASRLanguage     string
	MaxHistory      int
	IdleTimeout     time.Duration
	TokenTTL        time.Duration
}

// Session is the result of a successful agent join. UserToken is minted for
// the human participant in the same session so both credentials come from one
// clock reading.
type Session struct {
	AgentID   string
	Channel   string
	AgentUID  uint32
	UserUID   uint32
	UserToken string
}

// Orchestrator runs the token-then-join sequence for one channel.
type Orchestrator struct {
	cfg OrchestratorConfig
	cp  ControlPlane
	log zerolog.Logger

	now func() time.Time
}

func NewOrchestrator(cfg OrchestratorConfig, cp ControlPlane, log zerolog.Logger) *Orchestrator {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 32
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	return &Orchestrator{cfg: cfg, cp: cp, log: log, now: time.Now}
}

// StartAgentSession mints the agent and user tokens, then sends exactly one
// join request. Token issuance always completes (or fails) before the join is
// sent. Joins are never retried here; a rejection comes back as a *JoinError
// for the caller to report.
func (o *Orchestrator) StartAgentSession(ctx context.Context, channel string, agentUID, userUID uint32) (Session, error) {
	if strings.TrimSpace(channel) == "" {
		return Session{}, ErrEmptyChannel
	}
	if agentUID == 0 {
		return Session{}, fmt.Errorf("agent uid: %w", identity.ErrInvalidUID)
	}
	if userUID == 0 {
		return Session{}, fmt.Errorf("user uid: %w", identity.ErrInvalidUID)
	}

	agentToken, err := agoratoken.BuildRTCToken(o.cfg.AppID, o.cfg.AppCertificate, channel, agentUID, agoratoken.RolePublisher, o.cfg.TokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("mint agent token: %w", err)
	}
	userToken, err := agoratoken.BuildRTCToken(o.cfg.AppID, o.cfg.AppCertificate, channel, userUID, agoratoken.RolePublisher, o.cfg.TokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("mint user token: %w", err)
	}

	base := strings.TrimRight(o.cfg.PublicBaseURL, "/")
	req := JoinRequest{
		Name: fmt.Sprintf("agent_%s_%d", channel, o.now().UnixMilli()),
		Properties: AgentProperties{
			Channel:       channel,
			Token:         agentToken,
			AgentRTCUID:   strconv.FormatUint(uint64(agentUID), 10),
			RemoteRTCUIDs: []string{strconv.FormatUint(uint64(userUID), 10)},
			IdleTimeout:   strconv.Itoa(int(o.cfg.IdleTimeout / time.Second)),
			LLM: LLMVendor{
				Vendor: "custom",
				URL:    base + "/api/agora/llm",
				APIKey: o.cfg.VendorAPIKey,
				SystemMessages: []SystemMessage{
					{Role: "system", Content: o.cfg.SystemPrompt},
				},
				MaxHistory:      o.cfg.MaxHistory,
				GreetingMessage: o.cfg.GreetingMessage,
				FailureMessage:  o.cfg.FailureMessage,
			},
			TTS: TTSVendor{
				Vendor: "custom",
				URL:    base + "/api/agora/tts",
				APIKey: o.cfg.VendorAPIKey,
			},
			ASR: ASRConfig{Language: o.cfg.ASRLanguage},
		},
	}

	resp, err := o.cp.JoinAgent(ctx, req)
	if err != nil {
		// The consultation continues without the agent; report, don't crash.
		ev := o.log.Warn().Err(err).Str("channel", channel)
		var je *JoinError
		if errors.As(err, &je) {
			ev = ev.Int("status", je.StatusCode).Bool("retryable", je.Retryable)
		}
		ev.Msg("agent join failed")
		return Session{}, err
	}

	o.log.Info().Str("channel", channel).Str("agent_id", resp.AgentID).Msg("agent joined channel")
	return Session{
		AgentID:   resp.AgentID,
		Channel:   channel,
		AgentUID:  agentUID,
		UserUID:   userUID,
		UserToken: userToken,
	}, nil
}
