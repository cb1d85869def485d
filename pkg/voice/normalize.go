package voice

import "strings"

// accentFold maps the Spanish diacritics the recognizer produces to their
// base letters, mirroring an NFD decomposition with combining marks removed.
var accentFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u', 'ñ': 'n',
	'Á': 'a', 'É': 'e', 'Í': 'i', 'Ó': 'o', 'Ú': 'u', 'Ü': 'u', 'Ñ': 'n',
}

// Normalize lowercases, trims and accent-folds a transcript so vocabulary
// matching is insensitive to case and diacritics ("Mañana" == "manana").
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if folded, ok := accentFold[r]; ok {
			b.WriteRune(folded)
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(strings.ToLower(b.String()))
}

// MatchesVocabulary reports whether the normalized transcript matches any
// entry of the vocabulary, either as a whole token or as a substring. The
// vocabulary entries are normalized before comparison.
func MatchesVocabulary(normalized string, vocabulary []string) bool {
	tokens := strings.Fields(normalized)
	for _, entry := range vocabulary {
		pattern := Normalize(entry)
		if pattern == "" {
			continue
		}
		if strings.Contains(normalized, pattern) {
			return true
		}
		for _, tok := range tokens {
			if tok == pattern {
				return true
			}
		}
	}
	return false
}

// HasPrefixAny returns the matched trigger and remaining text when the
// normalized transcript starts with one of the trigger phrases.
func HasPrefixAny(normalized string, triggers []string) (rest string, ok bool) {
	for _, t := range triggers {
		pattern := Normalize(t)
		if strings.HasPrefix(normalized, pattern) {
			return strings.TrimSpace(strings.TrimPrefix(normalized, pattern)), true
		}
	}
	return "", false
}

// ContainsAny reports whether the normalized transcript contains any of the
// given phrases.
func ContainsAny(normalized string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(normalized, Normalize(p)) {
			return true
		}
	}
	return false
}
