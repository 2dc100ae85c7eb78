package convai

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/acumedic/agentbridge/internal/agoratoken"
	"github.com/acumedic/agentbridge/internal/identity"
)

const (
	testAppID   = "970CA35de60c44645bbae8a215061b33"
	testAppCert = "5CFd2fd1755d40ecb72977518be15d3b"
)

type fakeControlPlane struct {
	resp  JoinResponse
	err   error
	calls int
	last  JoinRequest
}

func (f *fakeControlPlane) JoinAgent(_ context.Context, req JoinRequest) (JoinResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return JoinResponse{}, f.err
	}
	return f.resp, nil
}

func testOrchestrator(cp ControlPlane) *Orchestrator {
	return NewOrchestrator(OrchestratorConfig{
		AppID:           testAppID,
		AppCertificate:  testAppCert,
		PublicBaseURL:   "https://bridge.example.com/",
		VendorAPIKey:    "vendor-key",
		SystemPrompt:    "You are a helpful medical assistant.",
		GreetingMessage: "Hello.",
		FailureMessage:  "Please hold on.",
		ASRLanguage:     "en-US",
		MaxHistory:      32,
		IdleTimeout:     2 * time.Minute,
		TokenTTL:        time.Hour,
	}, cp, zerolog.Nop())
}

func TestStartAgentSessionJoins(t *testing.T) {
	cp := &fakeControlPlane{resp: JoinResponse{AgentID: "agent-abc"}}
	o := testOrchestrator(cp)

	sess, err := o.StartAgentSession(context.Background(), "room42", 9001, 1002)
	if err != nil {
		t.Fatalf("StartAgentSession() error = %v", err)
	}
	if sess.AgentID != "agent-abc" {
		t.Fatalf("AgentID = %q, want agent-abc", sess.AgentID)
	}
	if cp.calls != 1 {
		t.Fatalf("join calls = %d, want exactly 1", cp.calls)
	}

	props := cp.last.Properties
	if props.Channel != "room42" || props.AgentRTCUID != "9001" {
		t.Fatalf("properties tuple = (%q, %q), want (room42, 9001)", props.Channel, props.AgentRTCUID)
	}
	if len(props.RemoteRTCUIDs) != 1 || props.RemoteRTCUIDs[0] != "1002" {
		t.Fatalf("remote uids = %v, want [1002]", props.RemoteRTCUIDs)
	}
	if props.IdleTimeout != "120" {
		t.Fatalf("idle_timeout = %q, want 120", props.IdleTimeout)
	}
	if props.LLM.URL != "https://bridge.example.com/api/agora/llm" {
		t.Fatalf("llm callback = %q", props.LLM.URL)
	}
	if props.TTS.URL != "https://bridge.example.com/api/agora/tts" {
		t.Fatalf("tts callback = %q", props.TTS.URL)
	}
	if props.LLM.MaxHistory != 32 || len(props.LLM.SystemMessages) != 1 {
		t.Fatalf("llm vendor config = %+v", props.LLM)
	}
	if props.ASR.Language != "en-US" {
		t.Fatalf("asr language = %q, want en-US", props.ASR.Language)
	}
}

func TestStartAgentSessionMintsScopedTokens(t *testing.T) {
	cp := &fakeControlPlane{resp: JoinResponse{AgentID: "agent-abc"}}
	o := testOrchestrator(cp)

	sess, err := o.StartAgentSession(context.Background(), "room42", 9001, 1002)
	if err != nil {
		t.Fatalf("StartAgentSession() error = %v", err)
	}

	agentToken, err := agoratoken.Verify(cp.last.Properties.Token, testAppCert)
	if err != nil {
		t.Fatalf("agent token does not verify: %v", err)
	}
	svc, ok := agentToken.Service(agoratoken.ServiceTypeRTC)
	if !ok {
		t.Fatalf("agent token has no RTC service")
	}
	rtc := svc.(*agoratoken.RTCService)
	if rtc.Channel != "room42" || rtc.UID != "9001" {
		t.Fatalf("agent token tuple = (%q, %q), want (room42, 9001)", rtc.Channel, rtc.UID)
	}

	userToken, err := agoratoken.Verify(sess.UserToken, testAppCert)
	if err != nil {
		t.Fatalf("user token does not verify: %v", err)
	}
	svc, _ = userToken.Service(agoratoken.ServiceTypeRTC)
	rtc = svc.(*agoratoken.RTCService)
	if rtc.Channel != "room42" || rtc.UID != "1002" {
		t.Fatalf("user token tuple = (%q, %q), want (room42, 1002)", rtc.Channel, rtc.UID)
	}
}

func TestStartAgentSessionRejectsZeroIdentities(t *testing.T) {
	cp := &fakeControlPlane{}
	o := testOrchestrator(cp)

	if _, err := o.StartAgentSession(context.Background(), "room42", 0, 1002); !errors.Is(err, identity.ErrInvalidUID) {
		t.Fatalf("agent uid 0 error = %v, want ErrInvalidUID", err)
	}
	if _, err := o.StartAgentSession(context.Background(), "room42", 9001, 0); !errors.Is(err, identity.ErrInvalidUID) {
		t.Fatalf("user uid 0 error = %v, want ErrInvalidUID", err)
	}
	if _, err := o.StartAgentSession(context.Background(), "  ", 9001, 1002); !errors.Is(err, ErrEmptyChannel) {
		t.Fatalf("empty channel error = %v, want ErrEmptyChannel", err)
	}
	if cp.calls != 0 {
		t.Fatalf("join calls = %d, want 0 when validation fails", cp.calls)
	}
}

func TestStartAgentSessionSurfacesJoinRejection(t *testing.T) {
	cp := &fakeControlPlane{err: &JoinError{StatusCode: http.StatusServiceUnavailable, Body: "maintenance", Retryable: true}}
	o := testOrchestrator(cp)

	_, err := o.StartAgentSession(context.Background(), "room42", 9001, 1002)
	var je *JoinError
	if !errors.As(err, &je) {
		t.Fatalf("error = %v, want *JoinError", err)
	}
	if je.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode = %d, want 503", je.StatusCode)
	}
	if cp.calls != 1 {
		t.Fatalf("join calls = %d, want exactly 1 (no retry)", cp.calls)
	}
}

func TestStartAgentSessionLogsRetryability(t *testing.T) {
	cp := &fakeControlPlane{err: &JoinError{StatusCode: http.StatusServiceUnavailable, Body: "maintenance", Retryable: true}}
	var buf bytes.Buffer
	o := NewOrchestrator(OrchestratorConfig{
		AppID:          testAppID,
		AppCertificate: testAppCert,
		PublicBaseURL:  "https://bridge.example.com",
		TokenTTL:       time.Hour,
	}, cp, zerolog.New(&buf))

	if _, err := o.StartAgentSession(context.Background(), "room42", 9001, 1002); err == nil {
		t.Fatalf("StartAgentSession() error = nil, want join rejection")
	}
	logged := buf.String()
	if !strings.Contains(logged, `"retryable":true`) {
		t.Fatalf("log %q does not carry the retryable flag", logged)
	}
	if !strings.Contains(logged, `"status":503`) {
		t.Fatalf("log %q does not carry the platform status", logged)
	}
}

func TestStartAgentSessionFailsBeforeJoinOnBadCredentials(t *testing.T) {
	cp := &fakeControlPlane{}
	o := NewOrchestrator(OrchestratorConfig{
		AppID:          "not-hex",
		AppCertificate: testAppCert,
		PublicBaseURL:  "https://bridge.example.com",
	}, cp, zerolog.Nop())

	if _, err := o.StartAgentSession(context.Background(), "room42", 9001, 1002); !errors.Is(err, agoratoken.ErrInvalidCredential) {
		t.Fatalf("error = %v, want ErrInvalidCredential", err)
	}
	if cp.calls != 0 {
		t.Fatalf("token minting must complete before any join is sent")
	}
}
