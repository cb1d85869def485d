package voice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	sttfake "github.com/danihdz11/mirror-voice-go/pkg/ai/stt/fake"
	ttsfake "github.com/danihdz11/mirror-voice-go/pkg/ai/tts/fake"
	"github.com/danihdz11/mirror-voice-go/pkg/audio"
	audiofake "github.com/danihdz11/mirror-voice-go/pkg/audio/fake"
	"github.com/danihdz11/mirror-voice-go/pkg/mirror"
)

type recordingFace struct {
	mu          sync.Mutex
	activations int
	err         error
}

func (f *recordingFace) Activate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.activations++
	return nil
}

func (f *recordingFace) Activations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activations
}

type newsStub struct {
	articles []mirror.Article
	err      error
}

func (s *newsStub) Headlines(ctx context.Context, limit int) ([]mirror.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && len(s.articles) > limit {
		return s.articles[:limit], nil
	}
	return s.articles, nil
}

type weatherStub struct{ err error }

func (s weatherStub) Current(ctx context.Context, city, country string) (mirror.Weather, error) {
	if s.err != nil {
		return mirror.Weather{}, s.err
	}
	return mirror.Weather{City: city, Temperature: 22, Description: "despejado"}, nil
}

type jokeStub struct{ err error }

func (s jokeStub) Joke(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "¿Qué le dijo un espejo a otro? Nos vemos.", nil
}

type ctrlFixture struct {
	ctrl    *Controller
	mic     *audiofake.Microphone
	stt     *sttfake.Transcriber
	synth   *ttsfake.Synthesizer
	player  *ttsfake.Player
	tasks   *mirror.MemoryTaskStore
	session *mirror.SessionStore
	nav     *mirror.Navigator
	face    *recordingFace
	news    *newsStub
}

func newFixture(t *testing.T, steps []sttfake.Step, segments ...audio.Segment) *ctrlFixture {
	t.Helper()

	f := &ctrlFixture{
		mic:     audiofake.NewMicrophone(segments...),
		stt:     sttfake.New(steps...),
		synth:   ttsfake.NewSynthesizer(),
		player:  ttsfake.NewPlayer(),
		tasks:   mirror.NewMemoryTaskStore(),
		session: mirror.NewSessionStore(),
		nav:     mirror.NewNavigator(mirror.ViewMirror),
		face:    &recordingFace{},
		news:    &newsStub{},
	}

	f.ctrl = NewController(ControllerDeps{
		Mic:         f.mic,
		Transcriber: f.stt,
		Synthesizer: f.synth,
		Player:      f.player,
		Session:     f.session,
		Navigator:   f.nav,
		Tasks:       f.tasks,
		Weather:     weatherStub{},
		News:        f.news,
		Jokes:       jokeStub{},
		Face:        f.face,
		Logger:      slog.Default(),
		Config: Config{
			Window:       60 * time.Millisecond,
			RearmDelay:   20 * time.Millisecond,
			MuteCooldown: 200 * time.Millisecond,
			GreetDelay:   time.Hour,
		},
	})

	t.Cleanup(f.ctrl.Stop)
	return f
}

func (f *ctrlFixture) login() {
	f.session.SetUser(mirror.User{ID: "u1", Name: "Dani", Location: "Guadalajara"})
}

func (f *ctrlFixture) say(text string) {
	f.sayWithConfidence(text, 1.0)
}

func (f *ctrlFixture) sayWithConfidence(text string, confidence float64) {
	f.ctrl.handleTranscript(TranscriptEvent{Text: text, Confidence: confidence, Route: f.nav.Path()})
}

func (f *ctrlFixture) spokenCount(substr string) int {
	count := 0
	for _, text := range f.synth.SynthesizedTexts() {
		if strings.Contains(text, substr) {
			count++
		}
	}
	return count
}

func (f *ctrlFixture) spoke(substr string) bool {
	return f.spokenCount(substr) > 0
}

func TestCommandTellTime(t *testing.T) {
	f := newFixture(t, nil)
	f.say("¿Qué hora es?")
	if !f.spoke("Son las") {
		t.Errorf("time command should voice the time, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestCommandTellDate(t *testing.T) {
	f := newFixture(t, nil)
	f.say("¿Qué día es hoy?")
	if !f.spoke("Hoy es") {
		t.Errorf("date command should voice the date, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestCommandElsa(t *testing.T) {
	f := newFixture(t, nil)
	f.say("Elsa")
	if !f.spoke("PATO") {
		t.Error("the easter egg should answer PATO")
	}
}

func TestCommandJoke(t *testing.T) {
	f := newFixture(t, nil)
	f.say("Cuéntame un chiste")
	if !f.spoke("espejo a otro") {
		t.Errorf("joke command should voice the joke, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestCommandWeatherDefaultCity(t *testing.T) {
	f := newFixture(t, nil)
	f.say("¿Cómo está el clima?")
	if !f.spoke("El clima en Monterrey") {
		t.Errorf("weather without a user should fall back to the default city, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestCommandWeatherUsesUserCity(t *testing.T) {
	f := newFixture(t, nil)
	f.login()
	f.say("¿Cómo está el clima?")
	if !f.spoke("El clima en Guadalajara") {
		t.Errorf("weather should use the user's city, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestCommandLogout(t *testing.T) {
	f := newFixture(t, nil)
	f.login()
	f.say("Cerrar sesión")

	if _, ok := f.session.Current(); ok {
		t.Error("logout should clear the session")
	}
	if !f.spoke("Hasta luego, Dani") {
		t.Errorf("logout should say goodbye by name, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestFirstMatchWins(t *testing.T) {
	f := newFixture(t, nil)
	f.login()

	// Matches both the task trigger and the news vocabulary; the task
	// command comes first in the table and must win.
	f.say("agregar tarea leer las noticias")

	if f.spoke("Aquí están las noticias") {
		t.Error("news must not run when an earlier command matched")
	}
	if !f.spoke("¿Para qué fecha") {
		t.Errorf("task command should have started the dialogue, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestTaskDialogueFullFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.login()

	f.say("Agregar tarea")
	if !f.spoke("¿Qué tarea quieres agregar?") {
		t.Fatalf("expected title question, spoke %v", f.synth.SynthesizedTexts())
	}

	f.say("Comprar leche")
	if !f.spoke("¿Para qué fecha") {
		t.Fatalf("expected date question, spoke %v", f.synth.SynthesizedTexts())
	}

	f.say("mañana")

	tasks, err := f.tasks.List(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Comprar leche" {
		t.Errorf("title = %q, want the raw transcript casing", tasks[0].Title)
	}
	wantDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	if tasks[0].Date == nil || *tasks[0].Date != wantDate {
		t.Errorf("date = %v, want %s", tasks[0].Date, wantDate)
	}
	if !f.spoke("Listo, agregué la tarea Comprar leche") {
		t.Errorf("expected confirmation, spoke %v", f.synth.SynthesizedTexts())
	}
	if f.ctrl.State().PendingTask() != nil {
		t.Error("dialogue draft must clear after creation")
	}
}

func TestTaskDialogueInlineTitleNoDate(t *testing.T) {
	f := newFixture(t, nil)
	f.login()

	f.say("Agregar tarea comprar pan")
	if !f.spoke("¿Para qué fecha") {
		t.Fatal("inline title should skip straight to the date question")
	}

	f.say("sin fecha")

	tasks, _ := f.tasks.List(context.Background(), "u1")
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "comprar pan" {
		t.Errorf("title = %q, want %q", tasks[0].Title, "comprar pan")
	}
	if tasks[0].Date != nil {
		t.Errorf("date = %v, want nil for sin fecha", *tasks[0].Date)
	}
}

func TestTaskDialogueAmbiguousDateKeepsAsking(t *testing.T) {
	f := newFixture(t, nil)
	f.login()

	f.say("agregar tarea lavar ropa")
	f.say("tal vez")

	if !f.spoke("No entendí la fecha") {
		t.Error("ambiguous date answer should re-ask")
	}
	pt := f.ctrl.State().PendingTask()
	if pt == nil || pt.Step != AwaitingDate || pt.TempTitle != "lavar ropa" {
		t.Fatalf("dialogue draft should survive the re-ask, got %+v", pt)
	}

	f.say("hoy")
	tasks, _ := f.tasks.List(context.Background(), "u1")
	if len(tasks) != 1 {
		t.Fatalf("expected the task after a valid date, got %d", len(tasks))
	}
}

func TestTaskDialogueSpokenMonthReasks(t *testing.T) {
	f := newFixture(t, nil)
	f.login()

	f.say("agregar tarea comprar regalos")

	// Contains the letters "no" (noviembre) but is not a decline and not a
	// parseable date: the dialogue must re-ask, not store a dateless task.
	f.say("el veinte de noviembre")

	if !f.spoke("No entendí la fecha") {
		t.Error("an unparsed spoken date should re-ask")
	}
	tasks, _ := f.tasks.List(context.Background(), "u1")
	if len(tasks) != 0 {
		t.Fatalf("no task should be stored yet, got %+v", tasks)
	}
	pt := f.ctrl.State().PendingTask()
	if pt == nil || pt.Step != AwaitingDate || pt.TempTitle != "comprar regalos" {
		t.Fatalf("dialogue draft should survive the re-ask, got %+v", pt)
	}
}

func TestTaskDialogueAbandonedOnNavigation(t *testing.T) {
	f := newFixture(t, nil)
	f.login()

	f.say("agregar tarea regar plantas")
	if f.ctrl.State().PendingTask() == nil {
		t.Fatal("dialogue should be open")
	}

	f.nav.Navigate(mirror.ViewLogin)
	if f.ctrl.State().PendingTask() != nil {
		t.Error("navigation must abandon the dialogue draft")
	}
}

func TestTasksRequireLogin(t *testing.T) {
	f := newFixture(t, nil)
	f.say("agregar tarea comprar pan")
	if !f.spoke("Necesitas iniciar sesión") {
		t.Error("task commands without a user should nudge toward login")
	}
	if f.ctrl.State().PendingTask() != nil {
		t.Error("no dialogue should open without a user")
	}
}

func TestDeleteTaskPreservesOrder(t *testing.T) {
	f := newFixture(t, nil)
	f.login()
	ctx := context.Background()
	for _, title := range []string{"Regar plantas", "Comprar leche", "Pagar renta"} {
		if _, err := f.tasks.Add(ctx, "u1", mirror.Task{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	f.say("Eliminar tarea: comprar leche")

	tasks, _ := f.tasks.List(ctx, "u1")
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "Regar plantas" || tasks[1].Title != "Pagar renta" {
		t.Errorf("remaining tasks out of order: %v", tasks)
	}
	if !f.spoke("eliminé la tarea Comprar leche") {
		t.Errorf("expected deletion confirmation, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestDeleteTaskNotFound(t *testing.T) {
	f := newFixture(t, nil)
	f.login()
	f.say("eliminar tarea pasear al perro")
	if !f.spoke("No encontré ninguna tarea") {
		t.Error("deleting a missing task should be reported")
	}
}

func TestExitMutesAndClearsEverything(t *testing.T) {
	f := newFixture(t, nil)
	f.login()
	f.say("agregar tarea algo") // open a dialogue to verify the interrupt clears it

	f.say("salir")

	if _, ok := f.session.Current(); ok {
		t.Error("exit must log the user out")
	}
	if f.nav.Path() != mirror.ViewMirror {
		t.Error("exit must land on the mirror view")
	}
	if f.ctrl.State().PendingTask() != nil {
		t.Error("exit must abandon the dialogue draft")
	}
	if !f.ctrl.State().IsMuted() {
		t.Fatal("exit must mute the session")
	}
	if !f.spoke("Hasta luego") {
		t.Error("exit should voice a farewell")
	}

	// Transcripts during the cool-down are dropped.
	f.say("¿Qué hora es?")
	if f.spoke("Son las") {
		t.Error("muted session must ignore commands")
	}

	eventually(t, time.Second, "mute lifted after the cool-down", func() bool {
		return !f.ctrl.State().IsMuted()
	})
}

func TestExitRequiresLiteralUtterance(t *testing.T) {
	f := newFixture(t, nil)
	f.login()

	f.say("no quiero salir de la aplicación")

	if f.ctrl.State().IsMuted() {
		t.Fatal("a phrase containing salir must not trigger the interrupt")
	}
	if _, ok := f.session.Current(); !ok {
		t.Error("the session must survive a non-literal mention of salir")
	}

	f.say("salir")
	if !f.ctrl.State().IsMuted() {
		t.Error("the literal utterance must trigger the interrupt")
	}
}

func TestConsentDeclineMentioningSalir(t *testing.T) {
	f := newFixture(t, nil)
	f.nav.Navigate(mirror.ViewLogin)
	eventually(t, time.Second, "consent question armed", func() bool {
		return f.spoke("Responde sí o no") && f.ctrl.State().AwaitingYesNo()
	})

	f.say("no quiero salir")

	if f.ctrl.State().IsMuted() {
		t.Fatal("a decline mentioning salir must not mute the session")
	}
	if f.ctrl.State().AwaitingYesNo() {
		t.Error("the phrase should read as a no answer")
	}
	if f.nav.Path() != mirror.ViewMirror {
		t.Error("declining should return to the mirror view")
	}
}

func TestLowConfidenceDiscardedAtFloor(t *testing.T) {
	f := newFixture(t, nil)

	f.sayWithConfidence("¿Qué hora es?", 0.2)
	if f.spoke("Son las") {
		t.Fatal("confidence below the floor must be discarded")
	}

	// Exactly the floor passes: only the open interval is discarded.
	f.sayWithConfidence("¿Qué hora es?", 0.3)
	if f.spokenCount("Son las") != 1 {
		t.Errorf("confidence at the floor should be handled, spoke %v", f.synth.SynthesizedTexts())
	}
}

func TestZeroConfidencePasses(t *testing.T) {
	f := newFixture(t, nil)
	f.sayWithConfidence("¿Qué hora es?", 0)
	if !f.spoke("Son las") {
		t.Error("missing confidence means no filtering")
	}
}

func TestStaleRouteDropped(t *testing.T) {
	f := newFixture(t, nil)
	f.ctrl.handleTranscript(TranscriptEvent{Text: "¿Qué hora es?", Confidence: 1, Route: mirror.ViewLogin})
	if f.spoke("Son las") {
		t.Error("a transcript captured on another view must be dropped")
	}
}

func TestLoginConsentYesActivatesFaceScan(t *testing.T) {
	f := newFixture(t, nil)

	f.say("Quiero iniciar sesión")
	if f.nav.Path() != mirror.ViewLogin {
		t.Fatal("login command should navigate to the login view")
	}
	eventually(t, time.Second, "consent question armed", func() bool {
		return f.spoke("Responde sí o no") && f.ctrl.State().AwaitingYesNo()
	})
	if !f.ctrl.State().AwaitingYesNo() {
		t.Fatal("login view should await a yes/no answer")
	}

	f.say("Sí")

	if f.ctrl.State().AwaitingYesNo() {
		t.Error("a yes answer should close the question")
	}
	if f.face.Activations() != 1 {
		t.Fatalf("expected one face activation, got %d", f.face.Activations())
	}
	if f.ctrl.State().Owner() != TurnFace {
		t.Error("face scan should own the audio turn")
	}

	f.ctrl.FaceScanFinished(&mirror.User{ID: "u1", Name: "Dani"})

	if f.nav.Path() != mirror.ViewMirror {
		t.Error("a recognized user should land on the mirror view")
	}
	if _, ok := f.session.Current(); !ok {
		t.Error("a recognized user should be logged in")
	}
	eventually(t, time.Second, "welcome voiced", func() bool {
		return f.spoke("Bienvenido, Dani")
	})
	eventually(t, time.Second, "listening resumed after the welcome", func() bool {
		return f.ctrl.State().IsListening()
	})
}

func TestLoginConsentNoReturnsHome(t *testing.T) {
	f := newFixture(t, nil)
	f.nav.Navigate(mirror.ViewLogin)
	eventually(t, time.Second, "consent question armed", func() bool {
		return f.spoke("Responde sí o no") && f.ctrl.State().AwaitingYesNo()
	})

	f.say("No, gracias")

	if f.ctrl.State().AwaitingYesNo() {
		t.Error("a no answer should close the question")
	}
	if f.nav.Path() != mirror.ViewMirror {
		t.Error("declining should return to the mirror view")
	}
	if f.face.Activations() != 0 {
		t.Error("declining must not start a face scan")
	}
}

func TestLoginConsentAmbiguousKeepsQuestion(t *testing.T) {
	f := newFixture(t, nil)
	f.nav.Navigate(mirror.ViewLogin)
	eventually(t, time.Second, "consent question armed", func() bool {
		return f.spoke("Responde sí o no") && f.ctrl.State().AwaitingYesNo()
	})

	before := len(f.synth.SynthesizedTexts())
	f.say("tal vez")

	if !f.ctrl.State().AwaitingYesNo() {
		t.Error("an ambiguous answer must keep the question open")
	}
	if got := len(f.synth.SynthesizedTexts()); got != before {
		t.Errorf("an ambiguous answer must be ignored silently, spoke %v", f.synth.SynthesizedTexts()[before:])
	}
	if f.face.Activations() != 0 {
		t.Error("an ambiguous answer must not start a face scan")
	}
	if f.nav.Path() != mirror.ViewLogin {
		t.Error("an ambiguous answer must not navigate")
	}
}

func TestFaceScanWithoutMatchAsksAgain(t *testing.T) {
	f := newFixture(t, nil)
	f.nav.Navigate(mirror.ViewLogin)
	eventually(t, time.Second, "consent question armed", func() bool {
		return f.spoke("Responde sí o no") && f.ctrl.State().AwaitingYesNo()
	})
	f.say("sí")

	f.ctrl.FaceScanFinished(nil)

	if _, ok := f.session.Current(); ok {
		t.Error("an unmatched scan must not log anyone in")
	}
	if f.ctrl.State().Owner() == TurnFace {
		t.Error("the scan must release the audio turn")
	}
	if !f.ctrl.State().AwaitingYesNo() {
		t.Error("an unmatched scan should reopen the consent question")
	}
	if !f.spoke("No pude reconocer tu rostro") {
		t.Error("an unmatched scan should be voiced")
	}
	eventually(t, time.Second, "listening resumed after the retry prompt", func() bool {
		return f.ctrl.State().IsListening()
	})
}

func TestFaceScanActivationFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.face.err = errors.New("service down")

	f.nav.Navigate(mirror.ViewLogin)
	eventually(t, time.Second, "consent question armed", func() bool {
		return f.spoke("Responde sí o no") && f.ctrl.State().AwaitingYesNo()
	})
	f.say("sí")

	if f.ctrl.State().Owner() == TurnFace {
		t.Error("a failed activation must release the audio turn")
	}
	if !f.ctrl.State().AwaitingYesNo() {
		t.Error("a failed activation should reopen the consent question")
	}
}

func TestNewsReadout(t *testing.T) {
	f := newFixture(t, nil)
	a := mirror.Article{Title: "Primera noticia"}
	a.Source.Name = "Diario"
	b := mirror.Article{Title: "Segunda noticia"}
	f.news.articles = []mirror.Article{a, b}

	f.say("Léeme las noticias")

	texts := f.synth.SynthesizedTexts()
	if len(texts) != 1 {
		t.Fatalf("the readout should be one utterance, got %d", len(texts))
	}
	readout := texts[0]
	for _, want := range []string{"Aquí están las noticias", "Noticia 1: Primera noticia", "Fuente: Diario", "Noticia 2: Segunda noticia", "Eso es todo por ahora"} {
		if !strings.Contains(readout, want) {
			t.Errorf("readout missing %q: %s", want, readout)
		}
	}
	if f.ctrl.State().IsReadingNews() {
		t.Error("the reading flag must clear when the readout ends")
	}
}

func TestNewsFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.news.err = errors.New("service down")
	f.say("noticias")
	if !f.spoke("No pude obtener las noticias") {
		t.Error("a news failure should be voiced")
	}
	if f.ctrl.State().IsReadingNews() {
		t.Error("the reading flag must clear on failure")
	}
}

func TestGoLoginWhileLoggedIn(t *testing.T) {
	f := newFixture(t, nil)
	f.login()
	f.say("iniciar sesión")
	if f.nav.Path() != mirror.ViewMirror {
		t.Error("an open session should not navigate to login")
	}
	if !f.spoke("Ya tienes una sesión abierta") {
		t.Error("expected the already-logged-in response")
	}
}

// TestEndToEndCaptureToCommand drives the whole pipeline: scripted audio
// segments flow through capture, transcription and routing, and the spoken
// response comes out of the synthesizer.
func TestEndToEndCaptureToCommand(t *testing.T) {
	steps := []sttfake.Step{sttfake.Say("¿Qué hora es?")}
	f := newFixture(t, steps, audiofake.Segment(2048))
	f.login()

	if err := f.ctrl.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, "command answered end to end", func() bool {
		return f.spoke("Son las")
	})
}
