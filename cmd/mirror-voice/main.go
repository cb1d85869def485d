package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/danihdz11/mirror-voice-go/internal/config"
	"github.com/danihdz11/mirror-voice-go/internal/facelink"
	sttfake "github.com/danihdz11/mirror-voice-go/pkg/ai/stt/fake"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/stt/whisper"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts/aplay"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts/espeak"
	ttsfake "github.com/danihdz11/mirror-voice-go/pkg/ai/tts/fake"
	ttsopenai "github.com/danihdz11/mirror-voice-go/pkg/ai/tts/openai"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
	"github.com/danihdz11/mirror-voice-go/pkg/audio/arecord"
	audiofake "github.com/danihdz11/mirror-voice-go/pkg/audio/fake"
	"github.com/danihdz11/mirror-voice-go/pkg/audio/wav"
	"github.com/danihdz11/mirror-voice-go/pkg/mirror"
	"github.com/danihdz11/mirror-voice-go/pkg/version"
	"github.com/danihdz11/mirror-voice-go/pkg/voice"
)

var rootCmd = &cobra.Command{
	Use:          "mirror-voice",
	Short:        "Voice-command session controller for the smart mirror",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the voice session against the mirror backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := setupLogger(cfg.LogLevel)
		logger.Info("starting voice session",
			slog.String("service", "mirror-voice"),
			slog.String("version", version.Version),
			slog.String("backend", cfg.BackendURL),
			slog.String("language", cfg.Language))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return runSession(ctx, cfg, logger)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted session against fake providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger("debug")
		logger.Info("starting demo session", slog.String("service", "mirror-voice"))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return runDemo(ctx, logger)
	},
}

var sttEchoCmd = &cobra.Command{
	Use:   "stt-echo",
	Short: "Transcribe a WAV file and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")
		provider, _ := cmd.Flags().GetString("provider")
		if filePath == "" {
			return fmt.Errorf("--file is required")
		}

		logger := setupLogger("info")
		return runSTTEcho(filePath, provider, logger)
	},
}

func setupLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{}
	switch level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if os.Getenv("MIRROR_LOG_FORMAT") == "console" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func runSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var fallback tts.Synthesizer
	if es := espeak.New(cfg.EspeakBinary, logger); es.Available() {
		fallback = es
	} else {
		logger.Warn("espeak not found, no local synthesis fallback")
	}

	session := mirror.NewSessionStore()
	nav := mirror.NewNavigator(mirror.ViewMirror)
	face := facelink.New(cfg.FaceServiceURL, logger)

	ctrl := voice.NewController(voice.ControllerDeps{
		Mic:         arecord.New("", audio.DefaultFormat),
		Transcriber: whisper.New(cfg.OpenAIAPIKey, logger),
		Synthesizer: ttsopenai.New(cfg.OpenAIAPIKey, logger),
		Fallback:    fallback,
		Player:      aplay.New(""),
		Session:     session,
		Navigator:   nav,
		Tasks:       mirror.NewTaskClient(cfg.BackendURL),
		Weather:     mirror.NewWeatherClient(cfg.BackendURL),
		News:        mirror.NewNewsClient(cfg.BackendURL),
		Jokes:       mirror.NewJokeClient(cfg.JokeURL),
		Face:        face,
		Logger:      logger,
		Config: voice.Config{
			Language: cfg.Language,
			Window:   cfg.RecordingWindow,
		},
	})

	face.OnFinished(ctrl.FaceScanFinished)
	if err := face.Connect(ctx); err != nil {
		// The session is usable without face login; voice commands still work.
		logger.Warn("face service unavailable", slog.String("error", err.Error()))
	}
	defer face.Close()

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	defer ctrl.Stop()

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// runDemo exercises the full routing pipeline with scripted providers: a
// task dialogue, a date query and the global exit command.
func runDemo(ctx context.Context, logger *slog.Logger) error {
	mic := audiofake.NewMicrophone(
		audiofake.Segment(2048),
		audiofake.Segment(2048),
		audiofake.Segment(2048),
		audiofake.Segment(2048),
	)
	transcriber := sttfake.New(
		sttfake.Say("agregar tarea comprar leche"),
		sttfake.Say("mañana"),
		sttfake.Say("¿qué día es hoy?"),
		sttfake.Say("salir"),
	)
	synth := ttsfake.NewSynthesizer()

	session := mirror.NewSessionStore()
	session.SetUser(mirror.User{ID: "demo", Name: "Dani", Location: "Monterrey"})

	ctrl := voice.NewController(voice.ControllerDeps{
		Mic:         mic,
		Transcriber: transcriber,
		Synthesizer: synth,
		Player:      ttsfake.NewPlayer(),
		Session:     session,
		Navigator:   mirror.NewNavigator(mirror.ViewMirror),
		Tasks:       mirror.NewMemoryTaskStore(),
		Weather:     staticWeather{},
		News:        staticNews{},
		Jokes:       staticJokes{},
		Face:        noopFace{},
		Clock:       clock.New(),
		Logger:      logger,
		Config: voice.Config{
			Window:       200 * time.Millisecond,
			RearmDelay:   100 * time.Millisecond,
			MuteCooldown: time.Second,
		},
	})

	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	select {
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
	}
	ctrl.Stop()

	for i, text := range synth.SynthesizedTexts() {
		logger.Info("spoken response", slog.Int("turn", i+1), slog.String("text", text))
	}
	return nil
}

func runSTTEcho(filePath, provider string, logger *slog.Logger) error {
	seg, err := wav.LoadSegment(filePath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", filePath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch provider {
	case "fake":
		t := sttfake.New(sttfake.Say("transcripción de prueba"))
		res, err := t.Transcribe(ctx, seg, "es-MX")
		if err != nil {
			return err
		}
		fmt.Printf("%s (confidence %.2f)\n", res.Transcript, res.Confidence)
	case "whisper", "":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the whisper provider")
		}
		t := whisper.New(key, logger)
		res, err := t.Transcribe(ctx, seg, "es-MX")
		if err != nil {
			return err
		}
		fmt.Printf("%s (confidence %.2f)\n", res.Transcript, res.Confidence)
	default:
		return fmt.Errorf("unknown provider %q", provider)
	}
	return nil
}

type staticWeather struct{}

func (staticWeather) Current(ctx context.Context, city, country string) (mirror.Weather, error) {
	return mirror.Weather{City: city, Temperature: 22, Description: "despejado"}, nil
}

type staticNews struct{}

func (staticNews) Headlines(ctx context.Context, limit int) ([]mirror.Article, error) {
	a := mirror.Article{Title: "El espejo inteligente aprende a escuchar"}
	a.Source.Name = "Demo"
	return []mirror.Article{a}, nil
}

type staticJokes struct{}

func (staticJokes) Joke(ctx context.Context) (string, error) {
	return "¿Qué le dijo un espejo a otro? Nos vemos.", nil
}

type noopFace struct{}

func (noopFace) Activate(ctx context.Context) error { return nil }

func main() {
	sttEchoCmd.Flags().String("file", "", "WAV file to transcribe")
	sttEchoCmd.Flags().String("provider", "whisper", "stt provider: whisper or fake")

	rootCmd.AddCommand(versionCmd, runCmd, demoCmd, sttEchoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
