// Package whisper implements the stt.Transcriber interface using the OpenAI
// Whisper transcription API.
package whisper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/stt"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
	"github.com/danihdz11/mirror-voice-go/pkg/audio/wav"
)

// Transcriber sends capture segments to the Whisper API.
type Transcriber struct {
	client *openai.Client
	model  string
	retry  ai.RetryConfig
	logger *slog.Logger
}

// New creates a Whisper transcriber.
func New(apiKey string, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		client: openai.NewClient(apiKey),
		model:  openai.Whisper1,
		retry:  ai.DefaultRetryConfig,
		logger: logger,
	}
}

// Transcribe sends one segment for recognition. Raw PCM segments are wrapped
// in a WAV container first; segments already carrying a container pass
// through unchanged.
func (t *Transcriber) Transcribe(ctx context.Context, seg audio.Segment, lang string) (stt.Result, error) {
	if seg.Empty() {
		return stt.Result{}, nil
	}

	data := seg.Data
	if seg.MimeType != "audio/wav" {
		data = wav.Encode(seg.Data, audio.DefaultFormat)
	}

	var resp openai.AudioResponse
	err := ai.Retry(ctx, t.retry, func() error {
		req := openai.AudioRequest{
			Model:    t.model,
			Language: baseLanguage(lang),
			Format:   openai.AudioResponseFormatVerboseJSON,
			Reader:   bytes.NewReader(data), // fresh reader per attempt
			FilePath: "segment.wav",         // the API requires a filename for the multipart part
		}
		var err error
		resp, err = t.client.CreateTranscription(ctx, req)
		if err != nil {
			return ai.NewRecoverableError(err, fmt.Sprintf("whisper transcription failed: %v", err))
		}
		return nil
	})
	if err != nil {
		return stt.Result{}, err
	}

	result := stt.Result{
		Transcript: strings.TrimSpace(resp.Text),
		Confidence: confidenceFromSegments(resp),
		Language:   resp.Language,
	}

	t.logger.Debug("Whisper transcription complete",
		slog.Int("audio_bytes", len(data)),
		slog.String("transcript", result.Transcript),
		slog.Float64("confidence", result.Confidence))

	return result, nil
}

// confidenceFromSegments derives a confidence score from the per-segment
// no-speech probabilities Whisper reports; the API has no direct confidence
// field.
func confidenceFromSegments(resp openai.AudioResponse) float64 {
	if len(resp.Segments) == 0 {
		return 0.95
	}
	total := 0.0
	for _, s := range resp.Segments {
		total += 1.0 - s.NoSpeechProb
	}
	return total / float64(len(resp.Segments))
}

// baseLanguage reduces a BCP-47 tag to the bare language code Whisper
// expects ("es-MX" -> "es").
func baseLanguage(lang string) string {
	if i := strings.IndexByte(lang, '-'); i > 0 {
		return lang[:i]
	}
	return lang
}
