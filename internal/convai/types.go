// Package convai drives the Agora Conversational AI Engine control plane:
// it mints agent credentials and asks the platform to admit an AI participant
// into a live channel, pointing the platform's LLM and TTS vendor hooks back
// at this service.
package convai

// JoinRequest is the control-plane body for admitting an agent into a
// channel. It is constructed fresh per call and never mutated after send.
type JoinRequest struct {
	Name       string          `json:"name"`
	Properties AgentProperties `json:"properties"`
}

type AgentProperties struct {
	Channel       string    `json:"channel"`
	Token         string    `json:"token"`
	AgentRTCUID   string    `json:"agent_rtc_uid"`
	RemoteRTCUIDs []string  `json:"remote_rtc_uids"`
	IdleTimeout   string    `json:"idle_timeout"`
	LLM           LLMVendor `json:"llm"`
	TTS           TTSVendor `json:"tts"`
	ASR           ASRConfig `json:"asr"`
}

type SystemMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMVendor points the agent's turn generation at a custom
// chat-completion-compatible callback.
type LLMVendor struct {
	Vendor          string          `json:"vendor"`
	URL             string          `json:"url"`
	APIKey          string          `json:"api_key"`
	SystemMessages  []SystemMessage `json:"system_messages"`
	MaxHistory      int             `json:"max_history"`
	GreetingMessage string          `json:"greeting_message"`
	FailureMessage  string          `json:"failure_message"`
}

// TTSVendor points the agent's speech synthesis at a custom callback.
type TTSVendor struct {
	Vendor string `json:"vendor"`
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
}

type ASRConfig struct {
	Language string `json:"language"`
}

// JoinResponse is the platform's acknowledgement of a successful join.
type JoinResponse struct {
	AgentID  string `json:"agent_id"`
	CreateTs int64  `json:"create_ts"`
	Status   string `json:"status"`
}
