package proxy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one ordered entry of an OpenAI-style conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body Agora posts to the custom LLM vendor URL.
type ChatRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []ChatMessage `json:"messages"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletion is the OpenAI-shaped response the agent expects back.
type ChatCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

// LLMAdapter bridges chat-completion requests to a Generator. It is stateless;
// every call is independent.
type LLMAdapter struct {
	gen   Generator
	model string

	now   func() time.Time
	newID func() string
}

func NewLLMAdapter(gen Generator, modelLabel string) *LLMAdapter {
	return &LLMAdapter{
		gen:   gen,
		model: modelLabel,
		now:   time.Now,
		newID: func() string { return "chatcmpl-" + uuid.NewString() },
	}
}

// HandleChat maps the message history into generation vocabulary, invokes
// generation and wraps the reply in the chat-completion shape. The role
// mapping is strict: assistant becomes model, system and user pass through
// unchanged, and nothing maps the other way.
func (a *LLMAdapter) HandleChat(ctx context.Context, req ChatRequest) (ChatCompletion, error) {
	if len(req.Messages) == 0 {
		return ChatCompletion{}, fmt.Errorf("messages are required: %w", ErrInvalidRequest)
	}

	history := make([]Turn, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		if role == RoleAssistant {
			role = RoleModel
		}
		switch role {
		case RoleSystem, RoleUser, RoleModel:
		default:
			return ChatCompletion{}, fmt.Errorf("unknown message role %q: %w", m.Role, ErrInvalidRequest)
		}
		history = append(history, Turn{Role: role, Text: m.Content})
	}

	reply, err := a.gen.GenerateReply(ctx, history)
	if err != nil {
		return ChatCompletion{}, errors.Join(ErrGeneration, err)
	}
	// An empty reply (e.g. a blocked generation) must surface as a failure,
	// never as a completion with blank content.
	if strings.TrimSpace(reply.Text) == "" {
		return ChatCompletion{}, fmt.Errorf("%w: generator returned an empty reply", ErrGeneration)
	}

	return ChatCompletion{
		ID:      a.newID(),
		Object:  "chat.completion",
		Created: a.now().Unix(),
		Model:   a.model,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      ChatMessage{Role: RoleAssistant, Content: reply.Text},
			FinishReason: "stop",
		}},
		Usage: ChatUsage{
			PromptTokens:     clampTokens(reply.Usage.InputTokens),
			CompletionTokens: clampTokens(reply.Usage.OutputTokens),
			TotalTokens:      clampTokens(reply.Usage.TotalTokens),
		},
	}, nil
}

// clampTokens keeps usage counters present and non-negative so downstream
// arithmetic never sees a missing or negative value.
func clampTokens(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
