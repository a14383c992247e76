package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayLabel turns a snake_case key into a title-cased label:
// "dairy_cattle" -> "Dairy Cattle".
func DisplayLabel(key string) string {
	words := strings.ReplaceAll(strings.TrimSpace(key), "_", " ")
	// A cases.Caser must not be shared between goroutines.
	return cases.Title(language.English).String(words)
}
