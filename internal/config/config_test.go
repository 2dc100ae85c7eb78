package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func clearBridgeEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"PUBLIC_BASE_URL",
		"AGORA_APP_ID",
		"AGORA_APP_CERTIFICATE",
		"AGORA_CUSTOMER_ID",
		"AGORA_CUSTOMER_SECRET",
		"AGORA_CONVOAI_BASE_URL",
		"GEMINI_API_KEY",
		"GEMINI_CHAT_MODEL",
		"GEMINI_TTS_MODEL",
		"GEMINI_TTS_VOICE",
		"AGORA_TOKEN_TTL",
		"AGENT_JOIN_TIMEOUT",
		"GENERATE_TIMEOUT",
		"AGENT_IDLE_TIMEOUT",
		"AGENT_MAX_HISTORY",
		"AGENT_SYSTEM_PROMPT",
		"AGENT_GREETING",
		"AGENT_FAILURE_MESSAGE",
		"AGENT_ASR_LANGUAGE",
	}
	for _, key := range keys {
		// t.Setenv registers restoration; Unsetenv makes the var truly absent
		// so envDefault tags apply.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearBridgeEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("TokenTTL = %v, want 1h", cfg.TokenTTL)
	}
	if cfg.ConvoAIBaseURL != "https://api.agora.io" {
		t.Fatalf("ConvoAIBaseURL = %q", cfg.ConvoAIBaseURL)
	}
	if cfg.AgentMaxHistory != 32 {
		t.Fatalf("AgentMaxHistory = %d, want 32", cfg.AgentMaxHistory)
	}
	if cfg.TTSVoice != "Algenib" {
		t.Fatalf("TTSVoice = %q, want Algenib", cfg.TTSVoice)
	}
	if cfg.AgentIdleTimeout != 120*time.Second {
		t.Fatalf("AgentIdleTimeout = %v, want 120s", cfg.AgentIdleTimeout)
	}
}

func TestLoadUsesExplicitValues(t *testing.T) {
	clearBridgeEnv(t)
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("AGORA_TOKEN_TTL", "30m")
	t.Setenv("AGORA_APP_ID", " app-id-with-space ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q, want :9191", cfg.BindAddr)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("TokenTTL = %v, want 30m", cfg.TokenTTL)
	}
	if cfg.AgoraAppID != "app-id-with-space" {
		t.Fatalf("AgoraAppID = %q, want trimmed value", cfg.AgoraAppID)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	clearBridgeEnv(t)
	t.Setenv("AGENT_IDLE_TIMEOUT", "2s")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() with 2s idle timeout must fail")
	}
}

func TestTokenCredentials(t *testing.T) {
	var cfg Config
	if err := cfg.TokenCredentials(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("empty config error = %v, want ErrMissingCredentials", err)
	}
	cfg.AgoraAppID = "app"
	cfg.AgoraAppCertificate = "cert"
	if err := cfg.TokenCredentials(); err != nil {
		t.Fatalf("TokenCredentials() error = %v", err)
	}
}

func TestAgentCredentialsRejectsPlaceholders(t *testing.T) {
	cfg := Config{
		AgoraAppID:          "app",
		AgoraAppCertificate: "cert",
		AgoraCustomerID:     "YOUR_AGORA_CUSTOMER_ID",
		AgoraCustomerSecret: "shh",
		GeminiAPIKey:        "key",
		PublicBaseURL:       "https://bridge.example.com",
	}
	if err := cfg.AgentCredentials(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("placeholder customer id error = %v, want ErrMissingCredentials", err)
	}

	cfg.AgoraCustomerID = "real-customer"
	if err := cfg.AgentCredentials(); err != nil {
		t.Fatalf("AgentCredentials() error = %v", err)
	}

	cfg.PublicBaseURL = ""
	if err := cfg.AgentCredentials(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("missing base url error = %v, want ErrMissingCredentials", err)
	}
}
