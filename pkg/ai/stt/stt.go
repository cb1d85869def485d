// Package stt defines the speech-to-text provider contract. Capture hands
// each recorded segment to a Transcriber; the result carries the transcript
// and a confidence score in [0, 1]. Callers treat a confidence below the
// configured floor as noise: the result is returned intact, the caller must
// discard action on it.
package stt

import (
	"context"

	"github.com/danihdz11/mirror-voice-go/pkg/ai"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
)

var (
	// ErrRecoverable indicates a temporary STT failure. The listening loop
	// treats this as "no utterance this cycle" and continues.
	ErrRecoverable = ai.ErrRecoverable

	// ErrFatal indicates a permanent STT failure (bad audio, bad credentials).
	ErrFatal = ai.ErrFatal
)

// Result is the transcription of one segment.
type Result struct {
	Transcript string
	Confidence float64 // 0..1; 0 means the provider reported none
	Language   string
}

// Transcriber converts one captured audio segment to text.
type Transcriber interface {
	// Transcribe sends the segment to the recognition service. lang is a
	// BCP-47 language hint, e.g. "es-MX".
	Transcribe(ctx context.Context, seg audio.Segment, lang string) (Result, error)
}
