package proxy

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/acumedic/agentbridge/internal/audio"
)

// SynthesisRequest is the body Agora posts to the custom TTS vendor URL.
// ResponseID correlates the synthesized audio with the triggering turn and
// must be echoed verbatim.
type SynthesisRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice,omitempty"`
	ResponseID string `json:"response_id"`
}

type SynthesisAudio struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

type SynthesisResponse struct {
	Audio      SynthesisAudio `json:"audio"`
	ResponseID string         `json:"response_id"`
}

// TTSAdapter bridges synthesis requests to a SpeechGenerator and transcodes
// the raw PCM result into a WAV clip the agent can play back.
type TTSAdapter struct {
	gen          SpeechGenerator
	defaultVoice string
}

func NewTTSAdapter(gen SpeechGenerator, defaultVoice string) *TTSAdapter {
	return &TTSAdapter{gen: gen, defaultVoice: defaultVoice}
}

func (a *TTSAdapter) HandleSynthesis(ctx context.Context, req SynthesisRequest) (SynthesisResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return SynthesisResponse{}, fmt.Errorf("text is required: %w", ErrInvalidRequest)
	}
	text := normalizeSpokenText(req.Text)
	if text == "" {
		return SynthesisResponse{}, fmt.Errorf("no speakable text after normalization: %w", ErrInvalidRequest)
	}
	voice := req.Voice
	if voice == "" {
		voice = a.defaultVoice
	}

	uri, err := a.gen.GenerateSpeech(ctx, text, voice)
	if err != nil {
		return SynthesisResponse{}, errors.Join(ErrSynthesis, err)
	}

	pcm, err := decodeAudioDataURI(uri)
	if err != nil {
		return SynthesisResponse{}, errors.Join(ErrSynthesis, err)
	}

	wav, err := audio.EncodeWAV(pcm, audio.DefaultChannels, audio.DefaultSampleRate, audio.DefaultSampleWidth)
	if err != nil {
		return SynthesisResponse{}, errors.Join(ErrSynthesis, err)
	}

	return SynthesisResponse{
		Audio: SynthesisAudio{
			Content:     base64.StdEncoding.EncodeToString(wav),
			ContentType: "audio/wav",
		},
		ResponseID: req.ResponseID,
	}, nil
}

// decodeAudioDataURI extracts and decodes the payload of an audio data URI.
// The part after the comma is base64 text, never raw bytes, so it must be
// decoded before transcoding.
func decodeAudioDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if uri == "" || comma < 0 {
		return nil, errors.New("no audio payload in generation result")
	}
	pcm, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return pcm, nil
}
