package voice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Trigger phrases for the two task operations. Matching happens on
// normalized text, so the entries carry no accents.
var (
	addTaskTriggers = []string{
		"agregar tarea",
		"anadir tarea",
		"nueva tarea",
		"crear tarea",
	}
	deleteTaskTriggers = []string{
		"eliminar tarea",
		"borrar tarea",
		"quitar tarea",
	}
	// "sin fecha" matches anywhere; the single-word declines must be whole
	// tokens or "noviembre" would read as a decline.
	noDateTokens = []string{
		"ninguna",
		"no",
	}
)

var (
	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b`)
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// ParseDateExpression interprets the date turn of the task dialogue. The
// input must already be normalized. It returns nil with ok=true when the
// user declined a date, an ISO yyyy-mm-dd string when a date was understood,
// and ok=false when the utterance is not a recognizable date answer.
func ParseDateExpression(normalized string, now time.Time) (date *string, ok bool) {
	if strings.Contains(normalized, "sin fecha") || hasAnyToken(normalized, noDateTokens) {
		return nil, true
	}

	// "pasado manana" must be checked before "manana".
	if strings.Contains(normalized, "pasado manana") {
		return isoDate(now.AddDate(0, 0, 2)), true
	}
	if strings.Contains(normalized, "manana") {
		return isoDate(now.AddDate(0, 0, 1)), true
	}
	if strings.Contains(normalized, "hoy") {
		return isoDate(now), true
	}

	if m := isoDateRe.FindStringSubmatch(normalized); m != nil {
		return strPtr(m[0]), true
	}

	if m := dayMonthRe.FindStringSubmatch(normalized); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			return strPtr(fmt.Sprintf("%04d-%02d-%02d", now.Year(), month, day)), true
		}
	}

	return nil, false
}

func hasAnyToken(normalized string, tokens []string) bool {
	for _, tok := range strings.Fields(normalized) {
		for _, want := range tokens {
			if tok == want {
				return true
			}
		}
	}
	return false
}

func isoDate(t time.Time) *string {
	return strPtr(t.Format("2006-01-02"))
}

func strPtr(s string) *string { return &s }
