package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail is applied on every write and lookup so that addresses differing
// only by case or surrounding whitespace collide on the unique index.
func NormalizeEmail(email string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(email)))
}

func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
