package voice

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mañana", "manana"},
		{"  ¿Qué HORA es?  ", "¿que hora es?"},
		{"SALIR", "salir"},
		{"añadir tarea", "anadir tarea"},
		{"", ""},
		{"número único", "numero unico"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchesVocabulary(t *testing.T) {
	yes := []string{"si", "claro", "por supuesto"}

	tests := []struct {
		in   string
		want bool
	}{
		{"si", true},
		{"si, adelante", true},
		{"pues claro que quiero", true},
		{"por supuesto", true},
		{"tal vez", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := MatchesVocabulary(Normalize(tt.in), yes); got != tt.want {
			t.Errorf("MatchesVocabulary(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHasPrefixAny(t *testing.T) {
	rest, ok := HasPrefixAny("agregar tarea comprar pan", addTaskTriggers)
	if !ok || rest != "comprar pan" {
		t.Errorf("HasPrefixAny = (%q, %v), want (\"comprar pan\", true)", rest, ok)
	}

	if _, ok := HasPrefixAny("quiero una tarea", addTaskTriggers); ok {
		t.Error("HasPrefixAny should not match mid-sentence triggers")
	}
}

func TestTextAfterAny(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"eliminar tarea: comprar leche", "comprar leche"},
		{"eliminar tarea comprar leche", "comprar leche"},
		{"por favor eliminar tarea pagar renta", "pagar renta"},
		{"eliminar tarea", ""},
		{"otra cosa", ""},
	}
	for _, tt := range tests {
		if got := textAfterAny(Normalize(tt.in), deleteTaskTriggers); got != tt.want {
			t.Errorf("textAfterAny(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
