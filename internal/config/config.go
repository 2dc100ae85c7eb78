// Package config loads the bridge's runtime settings from the environment,
// once, at process start. Components receive the struct by value and never
// read the environment per request.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrMissingCredentials marks absent or placeholder deployment secrets.
// Handlers check the relevant credential set once at request entry and log
// these distinctly from per-request failures.
var ErrMissingCredentials = errors.New("missing credentials")

// Config contains all runtime settings for the session bridge.
type Config struct {
	BindAddr         string        `env:"APP_BIND_ADDR" envDefault:":8080"`
	ShutdownTimeout  time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MetricsNamespace string        `env:"APP_METRICS_NAMESPACE" envDefault:"agentbridge"`

	// PublicBaseURL is the externally reachable base URL of this service,
	// used to build the LLM/TTS callback URLs embedded in agent joins.
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	AgoraAppID          string `env:"AGORA_APP_ID"`
	AgoraAppCertificate string `env:"AGORA_APP_CERTIFICATE"`
	AgoraCustomerID     string `env:"AGORA_CUSTOMER_ID"`
	AgoraCustomerSecret string `env:"AGORA_CUSTOMER_SECRET"`
	ConvoAIBaseURL      string `env:"AGORA_CONVOAI_BASE_URL" envDefault:"https://api.agora.io"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	ChatModel    string `env:"GEMINI_CHAT_MODEL" envDefault:"gemini-2.5-flash"`
	TTSModel     string `env:"GEMINI_TTS_MODEL" envDefault:"gemini-2.5-flash-preview-tts"`
	TTSVoice     string `env:"GEMINI_TTS_VOICE" envDefault:"Algenib"`

	TokenTTL        time.Duration `env:"AGORA_TOKEN_TTL" envDefault:"1h"`
	JoinTimeout     time.Duration `env:"AGENT_JOIN_TIMEOUT" envDefault:"10s"`
	GenerateTimeout time.Duration `env:"GENERATE_TIMEOUT" envDefault:"30s"`

	AgentIdleTimeout    time.Duration `env:"AGENT_IDLE_TIMEOUT" envDefault:"120s"`
	AgentMaxHistory     int           `env:"AGENT_MAX_HISTORY" envDefault:"32"`
	AgentSystemPrompt   string        `env:"AGENT_SYSTEM_PROMPT" envDefault:"You are a helpful medical assistant in a live consultation between a doctor and a patient. Be concise and clear."`
	AgentGreeting       string        `env:"AGENT_GREETING" envDefault:"Hello, I am the AcuMedic AI assistant. I will be monitoring this call to provide help if needed."`
	AgentFailureMessage string        `env:"AGENT_FAILURE_MESSAGE" envDefault:"I'm sorry, I'm having trouble connecting. Please hold on."`
	ASRLanguage         string        `env:"AGENT_ASR_LANGUAGE" envDefault:"en-US"`

	// CallbackAPIKey is presented by the platform when it invokes the LLM
	// and TTS vendor URLs. Optional; empty disables the header.
	CallbackAPIKey string `env:"AGENT_CALLBACK_API_KEY"`
}

// Load parses the environment and applies defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	cfg.PublicBaseURL = strings.TrimSpace(cfg.PublicBaseURL)
	cfg.AgoraAppID = strings.TrimSpace(cfg.AgoraAppID)
	cfg.AgoraAppCertificate = strings.TrimSpace(cfg.AgoraAppCertificate)
	cfg.AgoraCustomerID = strings.TrimSpace(cfg.AgoraCustomerID)
	cfg.AgoraCustomerSecret = strings.TrimSpace(cfg.AgoraCustomerSecret)
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.CallbackAPIKey = strings.TrimSpace(cfg.CallbackAPIKey)

	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("AGORA_TOKEN_TTL must be positive")
	}
	if cfg.JoinTimeout <= 0 || cfg.GenerateTimeout <= 0 {
		return Config{}, fmt.Errorf("AGENT_JOIN_TIMEOUT and GENERATE_TIMEOUT must be positive")
	}
	if cfg.AgentIdleTimeout < 10*time.Second {
		return Config{}, fmt.Errorf("AGENT_IDLE_TIMEOUT must be at least 10s")
	}
	if cfg.AgentMaxHistory <= 0 {
		return Config{}, fmt.Errorf("AGENT_MAX_HISTORY must be positive")
	}
	return cfg, nil
}

// TokenCredentials reports whether the token-issuing secrets are deployed.
func (c Config) TokenCredentials() error {
	if c.AgoraAppID == "" || c.AgoraAppCertificate == "" {
		return fmt.Errorf("AGORA_APP_ID and AGORA_APP_CERTIFICATE must be set: %w", ErrMissingCredentials)
	}
	return nil
}

// AgentCredentials reports whether everything needed to start an agent is
// deployed. Template placeholders shipped in sample env files count as unset.
func (c Config) AgentCredentials() error {
	if err := c.TokenCredentials(); err != nil {
		return err
	}
	if c.AgoraCustomerID == "" || c.AgoraCustomerSecret == "" ||
		c.AgoraCustomerID == "YOUR_AGORA_CUSTOMER_ID" || c.AgoraCustomerSecret == "YOUR_AGORA_CUSTOMER_SECRET" {
		return fmt.Errorf("AGORA_CUSTOMER_ID and AGORA_CUSTOMER_SECRET must be set: %w", ErrMissingCredentials)
	}
	if err := c.GenerationCredentials(); err != nil {
		return err
	}
	if c.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL must be set: %w", ErrMissingCredentials)
	}
	return nil
}

// GenerationCredentials reports whether the generation backend is deployed.
func (c Config) GenerationCredentials() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY must be set: %w", ErrMissingCredentials)
	}
	return nil
}
