// Package gemini implements the bridge's generation backends on the Gemini
// API: text replies for the LLM callback and speech for the TTS callback.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/acumedic/agentbridge/internal/proxy"
)

type Config struct {
	APIKey    string
	ChatModel string
	TTSModel  string
	TTSVoice  string
}

// Client talks to the Gemini API. It is safe for concurrent use; every call
// is a pure function of its inputs.
type Client struct {
	cfg    Config
	client *genai.Client
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gemini-2.5-flash"
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = "gemini-2.5-flash-preview-tts"
	}
	if cfg.TTSVoice == "" {
		cfg.TTSVoice = "Algenib"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{cfg: cfg, client: client}, nil
}

// ChatModel is the label reported back in chat-completion responses.
func (c *Client) ChatModel() string { return c.cfg.ChatModel }

// GenerateReply answers the most recent turn of history. System turns become
// the system instruction; user and model turns are passed through as contents
// in order, so the model addresses the last user turn with full context.
func (c *Client) GenerateReply(ctx context.Context, history []proxy.Turn) (proxy.Reply, error) {
	var systemParts []*genai.Part
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case proxy.RoleSystem:
			systemParts = append(systemParts, &genai.Part{Text: turn.Text})
		case proxy.RoleUser, proxy.RoleModel:
			contents = append(contents, &genai.Content{
				Role:  turn.Role,
				Parts: []*genai.Part{{Text: turn.Text}},
			})
		default:
			return proxy.Reply{}, fmt.Errorf("unsupported history role %q", turn.Role)
		}
	}
	if len(contents) == 0 {
		return proxy.Reply{}, errors.New("history has no user or model turns")
	}

	genCfg := &genai.GenerateContentConfig{}
	if len(systemParts) > 0 {
		genCfg.SystemInstruction = &genai.Content{Parts: systemParts}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.ChatModel, contents, genCfg)
	if err != nil {
		return proxy.Reply{}, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		// Blocked or empty candidates come back with a nil error.
		return proxy.Reply{}, errors.New("gemini returned no text")
	}

	reply := proxy.Reply{Text: text}
	if u := resp.UsageMetadata; u != nil {
		reply.Usage = proxy.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return reply, nil
}

// GenerateSpeech synthesizes text with the TTS model and returns the raw PCM
// result as a data URI, matching the wire form the TTS adapter consumes.
func (c *Client) GenerateSpeech(ctx context.Context, text, voice string) (string, error) {
	if voice == "" {
		voice = c.cfg.TTSVoice
	}

	genCfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	contents := []*genai.Content{{
		Role:  proxy.RoleUser,
		Parts: []*genai.Part{{Text: text}},
	}}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.TTSModel, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini tts: %w", err)
	}

	blob := firstAudioBlob(resp)
	if blob == nil {
		return "", errors.New("no audio media returned from gemini tts")
	}
	return EncodeAudioDataURI(blob.MIMEType, blob.Data), nil
}

func firstAudioBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}

// EncodeAudioDataURI renders inline audio bytes as a data URI.
func EncodeAudioDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "audio/pcm"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
