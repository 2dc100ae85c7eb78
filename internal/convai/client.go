package convai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/acumedic/agentbridge/internal/reliability"
)

const defaultBaseURL = "https://api.agora.io"

// JoinError reports a control-plane rejection. It carries the platform's
// status code so the caller can mirror it, and the raw body for diagnostics.
// A join rejection is non-fatal to the surrounding call: the human side
// proceeds without an AI participant.
type JoinError struct {
	StatusCode int
	Body       string
	Retryable  bool
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("agent join rejected: status %d: %s", e.StatusCode, e.Body)
}

type ClientConfig struct {
	BaseURL        string
	AppID          string
	CustomerID     string
	CustomerSecret string
	Timeout        time.Duration
}

// Client calls the Conversational AI Engine REST API with Basic auth
// customer credentials.
type Client struct {
	cfg   ClientConfig
	httpc *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}
}

// JoinAgent sends one join request and returns the agent handle. Non-2xx
// responses become a *JoinError; transport failures and deadline expiry are
// returned as wrapped errors.
func (c *Client) JoinAgent(ctx context.Context, req JoinRequest) (JoinResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return JoinResponse{}, fmt.Errorf("marshal join request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") +
		"/api/conversational-ai-agent/v2/projects/" + url.PathEscape(c.cfg.AppID) + "/join"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return JoinResponse{}, fmt.Errorf("create join request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.CustomerID, c.cfg.CustomerSecret)

	res, err := c.httpc.Do(httpReq)
	if err != nil {
		return JoinResponse{}, fmt.Errorf("join agent: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return JoinResponse{}, fmt.Errorf("read join response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return JoinResponse{}, &JoinError{
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Retryable:  reliability.IsRetryableHTTPStatus(res.StatusCode),
		}
	}

	var out JoinResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return JoinResponse{}, fmt.Errorf("decode join response: %w", err)
	}
	return out, nil
}
