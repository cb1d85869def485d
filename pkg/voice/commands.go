package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/danihdz11/mirror-voice-go/pkg/mirror"
)

// Command is one entry of the voice command table. The table is ordered and
// dispatch is first-match-wins, so broader vocabularies must come after
// narrower ones.
type Command struct {
	Name    string
	Matches func(normalized string) bool
	Handle  func(ctx context.Context, normalized, raw string) error
}

var spanishDays = []string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

var spanishMonths = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// commands builds the ordered command table.
func (c *Controller) commands() []Command {
	return []Command{
		{
			Name: "agregar_tarea",
			Matches: func(n string) bool {
				_, ok := HasPrefixAny(n, addTaskTriggers)
				return ok || ContainsAny(n, addTaskTriggers)
			},
			Handle: c.handleAddTask,
		},
		{
			Name: "eliminar_tarea",
			Matches: func(n string) bool {
				return ContainsAny(n, deleteTaskTriggers)
			},
			Handle: c.handleDeleteTask,
		},
		{
			Name: "leer_noticias",
			Matches: func(n string) bool {
				// The readout belongs to the home view.
				return strings.Contains(n, "noticias") && c.nav.Path() == mirror.ViewMirror
			},
			Handle: c.handleReadNews,
		},
		{
			Name: "logout",
			Matches: func(n string) bool {
				return ContainsAny(n, []string{"cerrar sesion", "cierra sesion", "cerrar mi sesion"})
			},
			Handle: c.handleLogout,
		},
		{
			Name: "ir_a_login",
			Matches: func(n string) bool {
				if c.nav.Path() == mirror.ViewLogin {
					return false
				}
				return ContainsAny(n, []string{"iniciar sesion", "inicia sesion", "quiero iniciar"})
			},
			Handle: c.handleGoLogin,
		},
		{
			Name: "elsa",
			Matches: func(n string) bool {
				return strings.Contains(n, "elsa")
			},
			Handle: func(ctx context.Context, _, _ string) error {
				c.speakAndRearm(ctx, "PATO", c.cfg.RearmDelay)
				return nil
			},
		},
		{
			Name: "decir_hora",
			Matches: func(n string) bool {
				return ContainsAny(n, []string{"que hora", "dime la hora", "hora es"})
			},
			Handle: c.handleTellTime,
		},
		{
			Name: "chiste",
			Matches: func(n string) bool {
				return strings.Contains(n, "chiste")
			},
			Handle: c.handleJoke,
		},
		{
			Name: "clima",
			Matches: func(n string) bool {
				return ContainsAny(n, []string{"clima", "temperatura"})
			},
			Handle: c.handleWeather,
		},
		{
			Name: "dia_hoy",
			Matches: func(n string) bool {
				return ContainsAny(n, []string{"que dia", "fecha de hoy", "dia es hoy"})
			},
			Handle: c.handleTellDate,
		},
	}
}

// dispatch runs the first command whose vocabulary matches. It reports
// whether any command handled the transcript.
func (c *Controller) dispatch(ctx context.Context, normalized, raw string) bool {
	for _, cmd := range c.table {
		if !cmd.Matches(normalized) {
			continue
		}
		c.log.Info("command matched", "command", cmd.Name)
		if err := cmd.Handle(ctx, normalized, raw); err != nil {
			c.log.Error("command failed", "command", cmd.Name, "error", err)
		}
		return true
	}
	return false
}

func (c *Controller) handleAddTask(ctx context.Context, normalized, raw string) error {
	if _, ok := c.requireUser(ctx); !ok {
		return nil
	}

	rest := textAfterAny(normalized, addTaskTriggers)
	if rest != "" {
		c.state.SetPendingTask(&PendingTask{Step: AwaitingDate, TempTitle: rest})
		c.speakAndRearm(ctx, "¿Para qué fecha es la tarea? Puedes decir hoy, mañana, una fecha, o sin fecha.", rearmDialogueDelay)
		return nil
	}

	c.state.SetPendingTask(&PendingTask{Step: AwaitingTitle})
	c.speakAndRearm(ctx, "¿Qué tarea quieres agregar?", rearmDialogueDelay)
	return nil
}

func (c *Controller) handleDeleteTask(ctx context.Context, normalized, raw string) error {
	user, ok := c.requireUser(ctx)
	if !ok {
		return nil
	}

	rest := textAfterAny(normalized, deleteTaskTriggers)
	if rest == "" {
		c.speakAndRearm(ctx, "Dime el nombre de la tarea que quieres eliminar, por ejemplo: eliminar tarea comprar leche.", c.cfg.RearmDelay)
		return nil
	}

	tasks, err := c.tasks.List(ctx, user.ID)
	if err != nil {
		c.speakAndRearm(ctx, "No pude consultar tus tareas en este momento.", c.cfg.RearmDelay)
		return err
	}

	// The backend deletes by position, so the index must come from the same
	// list the match was made against. Exact title match wins over a
	// substring match.
	index := -1
	for i, t := range tasks {
		if Normalize(t.Title) == rest {
			index = i
			break
		}
	}
	if index < 0 {
		for i, t := range tasks {
			if strings.Contains(Normalize(t.Title), rest) {
				index = i
				break
			}
		}
	}
	if index < 0 {
		c.speakAndRearm(ctx, fmt.Sprintf("No encontré ninguna tarea llamada %s.", rest), c.cfg.RearmDelay)
		return nil
	}

	title := tasks[index].Title
	if _, err := c.tasks.Delete(ctx, user.ID, index); err != nil {
		c.speakAndRearm(ctx, "No pude eliminar la tarea.", c.cfg.RearmDelay)
		return err
	}
	c.speakAndRearm(ctx, fmt.Sprintf("Listo, eliminé la tarea %s.", title), c.cfg.RearmDelay)
	return nil
}

func (c *Controller) handleReadNews(ctx context.Context, _, _ string) error {
	return c.ReadNews(ctx)
}

func (c *Controller) handleLogout(ctx context.Context, _, _ string) error {
	user, ok := c.session.Current()
	if !ok {
		c.speakAndRearm(ctx, "No hay ninguna sesión abierta.", c.cfg.RearmDelay)
		return nil
	}

	c.session.Clear()
	c.nav.Navigate(mirror.ViewMirror)
	c.speakAndRearm(ctx, fmt.Sprintf("Cerrando sesión. Hasta luego, %s.", user.Name), rearmLogoutDelay)
	return nil
}

func (c *Controller) handleGoLogin(ctx context.Context, _, _ string) error {
	if _, ok := c.session.Current(); ok {
		c.speakAndRearm(ctx, "Ya tienes una sesión abierta.", c.cfg.RearmDelay)
		return nil
	}
	// The route-change subscriber voices the consent prompt on arrival.
	c.nav.Navigate(mirror.ViewLogin)
	return nil
}

func (c *Controller) handleTellTime(ctx context.Context, _, _ string) error {
	now := c.clock.Now()
	c.speakAndRearm(ctx, fmt.Sprintf("Son las %d con %d minutos.", now.Hour(), now.Minute()), c.cfg.RearmDelay)
	return nil
}

func (c *Controller) handleTellDate(ctx context.Context, _, _ string) error {
	now := c.clock.Now()
	phrase := fmt.Sprintf("Hoy es %s %d de %s de %d.",
		spanishDays[int(now.Weekday())], now.Day(),
		spanishMonths[int(now.Month())-1], now.Year())
	c.speakAndRearm(ctx, phrase, c.cfg.RearmDelay)
	return nil
}

func (c *Controller) handleJoke(ctx context.Context, _, _ string) error {
	joke, err := c.jokes.Joke(ctx)
	if err != nil {
		c.speakAndRearm(ctx, "No pude obtener un chiste en este momento.", c.cfg.RearmDelay)
		return err
	}
	c.speakAndRearm(ctx, joke, c.cfg.RearmDelay)
	return nil
}

func (c *Controller) handleWeather(ctx context.Context, _, _ string) error {
	city := c.cfg.DefaultCity
	if user, ok := c.session.Current(); ok && user.Location != "" {
		city = user.Location
	}

	w, err := c.weather.Current(ctx, city, "")
	if err != nil {
		c.speakAndRearm(ctx, "No pude obtener el clima en este momento.", c.cfg.RearmDelay)
		return err
	}
	phrase := fmt.Sprintf("El clima en %s es %s, con una temperatura de %.0f grados.",
		w.City, w.Description, w.Temperature)
	c.speakAndRearm(ctx, phrase, c.cfg.RearmDelay)
	return nil
}

// textAfterAny returns the text following the first matching trigger phrase,
// trimmed of the punctuation the recognizer tends to insert ("eliminar
// tarea: comprar leche" yields "comprar leche").
func textAfterAny(normalized string, triggers []string) string {
	for _, t := range triggers {
		pattern := Normalize(t)
		idx := strings.Index(normalized, pattern)
		if idx < 0 {
			continue
		}
		return strings.Trim(normalized[idx+len(pattern):], ":,. ")
	}
	return ""
}

// requireUser speaks the login nudge when no session is open.
func (c *Controller) requireUser(ctx context.Context) (*mirror.User, bool) {
	user, ok := c.session.Current()
	if !ok {
		c.speakAndRearm(ctx, "Necesitas iniciar sesión para usar tus tareas.", c.cfg.RearmDelay)
		return nil, false
	}
	return user, true
}
