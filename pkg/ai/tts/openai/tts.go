// Package openai implements the tts.Synthesizer interface using the OpenAI
// speech API. This is the primary synthesis path; on failure the Speaker
// falls back to the local espeak voice.
package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

// DefaultVoice is used when the request does not name one.
const DefaultVoice = "nova"

// Synthesizer calls the OpenAI speech endpoint and returns 24 kHz mono PCM.
type Synthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	logger *slog.Logger
}

// New creates an OpenAI synthesizer.
func New(apiKey string, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		client: openai.NewClient(apiKey),
		model:  openai.TTSModel1,
		logger: logger,
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, req tts.SynthesizeRequest) (tts.Clip, error) {
	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	speed := float64(req.Speed)
	if speed == 0 {
		speed = 1.0
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          speed,
	})
	if err != nil {
		return tts.Clip{}, ai.NewRecoverableError(err, fmt.Sprintf("speech synthesis failed: %v", err))
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return tts.Clip{}, ai.NewRecoverableError(err, fmt.Sprintf("failed to read synthesis response: %v", err))
	}

	s.logger.Debug("Synthesized speech",
		slog.Int("text_len", len(req.Text)),
		slog.Int("pcm_bytes", len(pcm)))

	// The speech endpoint returns 24 kHz 16-bit mono PCM.
	return tts.Clip{
		PCM:    pcm,
		Format: audio.Format{SampleRate: 24000, Channels: 1, BitsPerSample: 16},
	}, nil
}
