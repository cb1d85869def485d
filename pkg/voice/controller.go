package voice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/danihdz11/mirror-voice-go/pkg/ai/stt"
	"github.com/danihdz11/mirror-voice-go/pkg/ai/tts"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
	"github.com/danihdz11/mirror-voice-go/pkg/mirror"
)

// Re-arm pauses after specific flows. Dialogue turns reopen the microphone
// quickly; logout leaves a longer beat before the mirror listens again.
const (
	rearmDialogueDelay = 800 * time.Millisecond
	rearmLogoutDelay   = 3 * time.Second
	rearmNewsFailDelay = 2 * time.Second
)

// FaceScanner starts the face-recognition flow. The scanner reports its
// outcome back through Controller.FaceScanFinished.
type FaceScanner interface {
	Activate(ctx context.Context) error
}

// ControllerDeps are the collaborators of a voice session.
type ControllerDeps struct {
	Mic         audio.Microphone
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Fallback    tts.Synthesizer // optional
	Player      tts.Player
	Session     *mirror.SessionStore
	Navigator   *mirror.Navigator
	Tasks       mirror.TaskStore
	Weather     mirror.WeatherService
	News        mirror.NewsService
	Jokes       mirror.JokeService
	Face        FaceScanner
	Clock       clock.Clock
	Logger      *slog.Logger
	Config      Config
}

// Controller is the voice session: it owns the capture loop and the speaker,
// routes every transcript (login consent, the "salir" interrupt, the task
// dialogue, then the command table) and arbitrates the audio turn between
// listening, speaking and face recognition.
type Controller struct {
	id      string
	cfg     Config
	state   *SessionState
	capture *Capture
	speaker *Speaker
	session *mirror.SessionStore
	nav     *mirror.Navigator
	tasks   mirror.TaskStore
	weather mirror.WeatherService
	news    mirror.NewsService
	jokes   mirror.JokeService
	face    FaceScanner
	clock   clock.Clock
	log     *slog.Logger
	table   []Command

	runCtx     context.Context
	muteTimer  *clock.Timer
	greetTimer *clock.Timer
}

// NewController wires a voice session from its collaborators.
func NewController(deps ControllerDeps) *Controller {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	cfg := deps.Config.withDefaults()

	id := uuid.NewString()
	c := &Controller{
		id:      id,
		cfg:     cfg,
		state:   NewSessionState(),
		session: deps.Session,
		nav:     deps.Navigator,
		tasks:   deps.Tasks,
		weather: deps.Weather,
		news:    deps.News,
		jokes:   deps.Jokes,
		face:    deps.Face,
		clock:   deps.Clock,
		log:     deps.Logger.With("session", id[:8]),
	}

	c.capture = NewCapture(deps.Mic, deps.Transcriber, c.state, deps.Clock, cfg,
		c.nav.Path, c.handleTranscript, c.log)
	c.speaker = NewSpeaker(deps.Synthesizer, deps.Fallback, deps.Player, c.capture,
		c.state, deps.Clock, cfg, c.log)
	c.table = c.commands()

	c.nav.Subscribe(c.onRouteChange)
	return c
}

// State exposes the session state, mainly for tests and status endpoints.
func (c *Controller) State() *SessionState { return c.state }

// Start begins the session. With a logged-in user listening starts right
// away; on the idle home screen a greeting is voiced after a short delay.
func (c *Controller) Start(ctx context.Context) error {
	c.runCtx = ctx

	if _, ok := c.session.Current(); ok {
		return c.capture.Start(ctx)
	}

	c.greetTimer = c.clock.AfterFunc(c.cfg.GreetDelay, func() {
		if _, ok := c.session.Current(); ok || c.state.IsMuted() {
			return
		}
		c.speakAndRearm(ctx, "Hola, soy tu espejo inteligente. Di iniciar sesión para comenzar.", c.cfg.RearmDelay)
	})
	return nil
}

// Stop ends the session: capture stops and pending timers are cancelled.
func (c *Controller) Stop() {
	if c.greetTimer != nil {
		c.greetTimer.Stop()
	}
	if c.muteTimer != nil {
		c.muteTimer.Stop()
	}
	c.capture.Stop()
}

// StartListening opens the microphone loop, deferring while speech or a face
// scan owns the audio turn.
func (c *Controller) StartListening(ctx context.Context) error {
	return c.capture.Start(ctx)
}

// StopListening closes the microphone loop.
func (c *Controller) StopListening() {
	c.capture.Stop()
}

// Speak voices text through the session speaker.
func (c *Controller) Speak(ctx context.Context, text string) error {
	return c.speaker.Speak(ctx, text)
}

// handleTranscript routes one recognized utterance. Routing order: mute,
// staleness, confidence, the global "salir" interrupt, the login consent
// question, the task dialogue, then the command table.
func (c *Controller) handleTranscript(ev TranscriptEvent) {
	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	if c.state.IsMuted() {
		c.log.Debug("transcript dropped, session muted", "text", ev.Text)
		return
	}
	if current := c.nav.Path(); ev.Route != current {
		c.log.Debug("transcript dropped, stale route", "captured", ev.Route, "current", current)
		return
	}
	if ev.Confidence > 0 && ev.Confidence < c.cfg.ConfidenceFloor {
		c.log.Debug("transcript dropped, low confidence", "confidence", ev.Confidence)
		return
	}

	normalized := Normalize(ev.Text)
	if normalized == "" {
		return
	}

	// The interrupt is the literal word alone; "no quiero salir" is an
	// ordinary utterance.
	if normalized == "salir" {
		c.handleExit(ctx)
		return
	}

	if c.state.AwaitingYesNo() && c.nav.Path() == mirror.ViewLogin {
		c.handleConsentAnswer(ctx, normalized)
		return
	}

	if pt := c.state.PendingTask(); pt != nil {
		c.continueTaskDialogue(ctx, ev, pt)
		return
	}

	if !c.dispatch(ctx, normalized, ev.Text) {
		c.log.Debug("no command matched", "text", ev.Text)
	}
}

// handleExit is the global "salir" interrupt: everything in flight stops,
// the session logs out, and the mirror goes deaf for the cool-down window.
func (c *Controller) handleExit(ctx context.Context) {
	c.log.Info("exit command received, muting", "cooldown", c.cfg.MuteCooldown)

	if c.muteTimer != nil {
		c.muteTimer.Stop()
	}
	c.capture.Stop()
	c.state.SetAwaitingYesNo(false)
	c.state.SetPendingTask(nil)
	c.state.SetReadingNews(false)
	c.session.Clear()
	c.nav.Navigate(mirror.ViewMirror)

	// Mute before speaking so the farewell's completion cannot re-arm.
	c.state.SetMuted(true)
	if err := c.speaker.Speak(ctx, "Hasta luego. Estaré en silencio por un momento."); err != nil {
		c.log.Warn("failed to voice farewell", "error", err)
	}

	c.muteTimer = c.clock.AfterFunc(c.cfg.MuteCooldown, func() {
		c.state.SetMuted(false)
		if err := c.capture.Start(ctx); err != nil {
			c.log.Warn("failed to resume listening after mute", "error", err)
		}
	})
}

// handleConsentAnswer resolves the yes/no question of the login view. An
// answer outside both vocabularies keeps the question open.
func (c *Controller) handleConsentAnswer(ctx context.Context, normalized string) {
	switch {
	case MatchesVocabulary(normalized, c.cfg.YesVocabulary):
		c.state.SetAwaitingYesNo(false)
		if err := c.speaker.Speak(ctx, "Perfecto, voy a leer tu rostro. Colócate frente al espejo."); err != nil {
			c.log.Warn("failed to voice face prompt", "error", err)
		}
		c.activateFaceScan(ctx)

	case MatchesVocabulary(normalized, c.cfg.NoVocabulary):
		c.state.SetAwaitingYesNo(false)
		c.session.Clear()
		c.speakAndRearm(ctx, "De acuerdo, volviendo al inicio.", c.cfg.RearmDelay)
		c.nav.Navigate(mirror.ViewMirror)

	default:
		// Not an answer. The question stays open and listening continues.
		c.log.Debug("utterance is neither yes nor no, keeping question open", "text", normalized)
	}
}

// activateFaceScan hands the audio turn to face recognition. Speech has
// already finished, so the turn should be free.
func (c *Controller) activateFaceScan(ctx context.Context) {
	if !c.state.AcquireTurn(TurnFace) {
		c.log.Warn("audio turn busy, cannot start face scan", "owner", c.state.Owner().String())
		return
	}
	if err := c.face.Activate(ctx); err != nil {
		c.state.ReleaseTurn(TurnFace)
		c.log.Error("face scan failed to start", "error", err)
		c.state.SetAwaitingYesNo(true)
		c.speakAndRearm(ctx, "No pude iniciar el reconocimiento facial. ¿Quieres intentar de nuevo?", rearmDialogueDelay)
	}
}

// FaceScanFinished is called by the face-recognition bridge when a scan
// ends. A recognized user logs in and lands on the mirror view; otherwise
// listening resumes so the user can retry.
func (c *Controller) FaceScanFinished(user *mirror.User) {
	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	c.state.ReleaseTurn(TurnFace)

	// Whatever is voiced next (welcome or retry prompt) reopens the
	// microphone when it completes.
	c.state.SetResumeAfterSpeech(true)

	if user != nil {
		c.log.Info("face scan recognized user", "user", user.Name)
		c.session.SetUser(*user)
		c.nav.Navigate(mirror.ViewMirror)
		return
	}

	c.log.Info("face scan finished without a match")
	c.state.SetAwaitingYesNo(true)
	if err := c.speaker.Speak(ctx, "No pude reconocer tu rostro. ¿Quieres intentar de nuevo?"); err != nil {
		c.log.Warn("failed to voice retry prompt", "error", err)
	}
}

// onRouteChange reacts to navigation. Any view change abandons a task
// dialogue in progress; arriving at the login view voices the consent
// question; arriving at the mirror with a user voices the welcome.
func (c *Controller) onRouteChange(path string) {
	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	c.state.SetPendingTask(nil)

	switch path {
	case mirror.ViewLogin:
		c.state.SetAwaitingYesNo(false)
		go func() {
			// The flag arms only once the question has been voiced, so an
			// utterance from before the prompt cannot be taken as an answer.
			if err := c.speaker.Speak(ctx, "¿Quieres iniciar sesión con reconocimiento facial? Responde sí o no."); err != nil {
				c.log.Warn("failed to voice consent question", "error", err)
			}
			c.state.SetAwaitingYesNo(true)
			c.clock.AfterFunc(rearmDialogueDelay, func() {
				if err := c.capture.Start(ctx); err != nil {
					c.log.Warn("failed to re-arm listening", "error", err)
				}
			})
		}()

	default:
		c.state.SetAwaitingYesNo(false)
		if user, ok := c.session.Current(); ok && path == mirror.ViewMirror {
			go c.speakAndRearm(ctx, fmt.Sprintf("Bienvenido, %s. ¿En qué puedo ayudarte?", user.Name), c.cfg.RearmDelay)
		}
	}
}

// continueTaskDialogue advances the task-creation dialogue with the user's
// answer for the current step.
func (c *Controller) continueTaskDialogue(ctx context.Context, ev TranscriptEvent, pt *PendingTask) {
	switch pt.Step {
	case AwaitingTitle:
		title := strings.TrimSpace(ev.Text)
		if title == "" {
			return
		}
		c.state.SetPendingTask(&PendingTask{Step: AwaitingDate, TempTitle: title})
		c.speakAndRearm(ctx, "¿Para qué fecha es la tarea? Puedes decir hoy, mañana, una fecha, o sin fecha.", rearmDialogueDelay)

	case AwaitingDate:
		date, ok := ParseDateExpression(Normalize(ev.Text), c.clock.Now())
		if !ok {
			c.speakAndRearm(ctx, "No entendí la fecha. Puedes decir hoy, mañana, una fecha, o sin fecha.", rearmDialogueDelay)
			return
		}

		user, found := c.session.Current()
		if !found {
			// Logged out mid-dialogue; drop the draft.
			c.state.SetPendingTask(nil)
			return
		}

		task := mirror.Task{Title: pt.TempTitle, Date: date, Repeat: "none"}
		if _, err := c.tasks.Add(ctx, user.ID, task); err != nil {
			c.log.Error("failed to store task", "error", err)
			c.state.SetPendingTask(nil)
			c.speakAndRearm(ctx, "No pude guardar la tarea.", c.cfg.RearmDelay)
			return
		}

		c.state.SetPendingTask(nil)
		if date != nil {
			c.speakAndRearm(ctx, fmt.Sprintf("Listo, agregué la tarea %s para el %s.", pt.TempTitle, *date), c.cfg.RearmDelay)
		} else {
			c.speakAndRearm(ctx, fmt.Sprintf("Listo, agregué la tarea %s.", pt.TempTitle), c.cfg.RearmDelay)
		}
	}
}

// ReadNews voices the day's headlines as one long utterance.
func (c *Controller) ReadNews(ctx context.Context) error {
	if c.state.IsReadingNews() {
		return nil
	}
	c.state.SetReadingNews(true)
	defer c.state.SetReadingNews(false)

	articles, err := c.news.Headlines(ctx, 5)
	if err != nil || len(articles) == 0 {
		c.speakAndRearm(ctx, "No pude obtener las noticias en este momento.", rearmNewsFailDelay)
		return err
	}

	var b strings.Builder
	b.WriteString("Aquí están las noticias del día. ")
	for i, a := range articles {
		fmt.Fprintf(&b, "Noticia %d: %s. ", i+1, a.Title)
		if a.Source.Name != "" {
			fmt.Fprintf(&b, "Fuente: %s. ", a.Source.Name)
		}
	}
	b.WriteString("Eso es todo por ahora.")

	c.speakAndRearm(ctx, b.String(), c.cfg.RearmDelay)
	return nil
}

// speakAndRearm voices text, then reopens the microphone after the given
// pause. The re-arm is skipped while muted.
func (c *Controller) speakAndRearm(ctx context.Context, text string, delay time.Duration) {
	if err := c.speaker.Speak(ctx, text); err != nil {
		c.log.Warn("failed to voice response", "error", err)
	}
	if c.state.IsMuted() {
		return
	}
	c.clock.AfterFunc(delay, func() {
		if err := c.capture.Start(ctx); err != nil {
			c.log.Warn("failed to re-arm listening", "error", err)
		}
	})
}
