package voice

import "time"

// Config carries the tunables of the voice session.
type Config struct {
	// Language is the BCP-47 recognition and synthesis language.
	Language string

	// Window is the length of one microphone recording window.
	Window time.Duration

	// MinSegmentBytes is the smallest captured segment worth transcribing;
	// anything shorter is treated as silence and discarded.
	MinSegmentBytes int

	// ConfidenceFloor discards low-confidence transcripts. Only results with
	// confidence strictly inside (0, ConfidenceFloor) are dropped; a zero
	// confidence means the provider reported none and the text is kept.
	ConfidenceFloor float64

	// MuteCooldown is how long the session stays deaf after "salir".
	MuteCooldown time.Duration

	// GreetDelay is the idle delay before the home-screen greeting.
	GreetDelay time.Duration

	// RearmDelay is the default pause between finishing a command and
	// reopening the microphone.
	RearmDelay time.Duration

	// YesVocabulary and NoVocabulary are the accepted answers of the login
	// consent question.
	YesVocabulary []string
	NoVocabulary  []string

	// DefaultCity is the weather city used when no user is logged in.
	DefaultCity string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Language:        "es-MX",
		Window:          5 * time.Second,
		MinSegmentBytes: 1024,
		ConfidenceFloor: 0.3,
		MuteCooldown:    20 * time.Second,
		GreetDelay:      5 * time.Second,
		RearmDelay:      time.Second,
		YesVocabulary:   []string{"si", "yes", "ok", "claro", "por supuesto", "adelante", "dale"},
		NoVocabulary:    []string{"no", "cancelar", "negativo", "para nada", "salir"},
		DefaultCity:     "Monterrey",
	}
}

// withDefaults fills the zero-valued fields of a user-supplied config.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Language == "" {
		c.Language = def.Language
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.MinSegmentBytes <= 0 {
		c.MinSegmentBytes = def.MinSegmentBytes
	}
	if c.ConfidenceFloor <= 0 {
		c.ConfidenceFloor = def.ConfidenceFloor
	}
	if c.MuteCooldown <= 0 {
		c.MuteCooldown = def.MuteCooldown
	}
	if c.GreetDelay <= 0 {
		c.GreetDelay = def.GreetDelay
	}
	if c.RearmDelay <= 0 {
		c.RearmDelay = def.RearmDelay
	}
	if len(c.YesVocabulary) == 0 {
		c.YesVocabulary = def.YesVocabulary
	}
	if len(c.NoVocabulary) == 0 {
		c.NoVocabulary = def.NoVocabulary
	}
	if c.DefaultCity == "" {
		c.DefaultCity = def.DefaultCity
	}
	return c
}
