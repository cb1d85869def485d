// Package config loads the service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration.
type Config struct {
	// OpenAIAPIKey authenticates transcription and speech synthesis.
	OpenAIAPIKey string

	// BackendURL is the mirror backend root (tasks, weather, news).
	BackendURL string

	// FaceServiceURL is the face-recognition websocket endpoint.
	FaceServiceURL string

	// JokeURL overrides the public joke API endpoint. Empty uses the default.
	JokeURL string

	// Language is the recognition and synthesis language.
	Language string

	// Voice selects the synthesis voice. Empty uses the provider default.
	Voice string

	// EspeakBinary is the local fallback synthesizer binary.
	EspeakBinary string

	// RecordingWindow is the length of one microphone window.
	RecordingWindow time.Duration

	// LogLevel is debug, info, warn or error.
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		BackendURL:      getEnv("MIRROR_BACKEND_URL", "http://localhost:5001"),
		FaceServiceURL:  getEnv("FACE_SERVICE_URL", "ws://localhost:5002/face"),
		JokeURL:         os.Getenv("JOKE_API_URL"),
		Language:        getEnv("VOICE_LANGUAGE", "es-MX"),
		Voice:           os.Getenv("VOICE_NAME"),
		EspeakBinary:    getEnv("ESPEAK_BINARY", "espeak-ng"),
		RecordingWindow: 5 * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("RECORDING_WINDOW_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid RECORDING_WINDOW_MS %q", raw)
		}
		cfg.RecordingWindow = time.Duration(ms) * time.Millisecond
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
