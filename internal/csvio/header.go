package csvio

import (
	"strings"
)

// Alias wiąże pole logiczne z możliwymi nazwami kolumn w nagłówku.
type Alias struct {
	Field string
	Names []string
}

// Columns: pole logiczne -> indeks kolumny.
type Columns map[string]int

// Get zwraca wartość pola albo "" gdy kolumny brak lub wiersz jest za krótki.
func (c Columns) Get(fields []string, field string) string {
	i, ok := c[field]
	if !ok || i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func (c Columns) Has(field string) bool {
	_, ok := c[field]
	return ok
}

// ResolveColumns dopasowuje nagłówek do aliasów: najpierw dokładnie, potem po fragmencie.
// Jeśli któregoś z pól wymaganych nie da się znaleźć, zwraca układ pozycyjny i false.
func ResolveColumns(header []string, aliases []Alias, required []string, positional Columns) (Columns, bool) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	out := Columns{}
	used := map[int]bool{}

	// 1) dokładne dopasowania
	for _, a := range aliases {
		for _, name := range a.Names {
			if i := indexOf(norm, name, used, false); i >= 0 {
				out[a.Field] = i
				used[i] = true
				break
			}
		}
	}
	// 2) dopasowania częściowe dla brakujących pól
	for _, a := range aliases {
		if out.Has(a.Field) {
			continue
		}
		for _, name := range a.Names {
			if i := indexOf(norm, name, used, true); i >= 0 {
				out[a.Field] = i
				used[i] = true
				break
			}
		}
	}

	for _, f := range required {
		if !out.Has(f) {
			return positional, false
		}
	}
	return out, true
}

func indexOf(header []string, name string, used map[int]bool, partial bool) int {
	for i, h := range header {
		if used[i] || h == "" {
			continue
		}
		if h == name || (partial && strings.Contains(h, name)) {
			return i
		}
	}
	return -1
}
