// Package proxy translates the Agora Conversational AI Engine's custom
// vendor callbacks (OpenAI chat-completion shape for LLM turns, text plus
// correlation id for speech) into internal generation calls and back.
package proxy

import (
	"context"
	"errors"
)

// Conversation roles on the two sides of the bridge. Agora speaks the OpenAI
// vocabulary (system/user/assistant); the generation side speaks
// system/user/model.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleModel     = "model"
)

// Turn is one message of the conversation history handed to generation.
type Turn struct {
	Role string
	Text string
}

// Usage mirrors the generation service's token accounting.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Reply is a successful text generation result.
type Reply struct {
	Text  string
	Usage Usage
}

// Generator produces an assistant reply for the most recent user turn, using
// all prior turns as context.
type Generator interface {
	GenerateReply(ctx context.Context, history []Turn) (Reply, error)
}

// SpeechGenerator synthesizes speech for text and returns the audio as a
// data URI ("data:audio/pcm;base64,<payload>").
type SpeechGenerator interface {
	GenerateSpeech(ctx context.Context, text, voice string) (string, error)
}

var (
	// ErrInvalidRequest marks request bodies the caller can correct.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrGeneration marks upstream text generation failures. The adapter
	// never substitutes a fabricated reply for one of these.
	ErrGeneration = errors.New("generation failed")
	// ErrSynthesis marks upstream speech synthesis failures, including a
	// missing audio payload.
	ErrSynthesis = errors.New("synthesis failed")
)
