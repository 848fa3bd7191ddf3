package domain

import (
	"strings"
	"unicode/utf8"
)

// NormalizeText trims surrounding whitespace.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}

// ValidName reports whether a trimmed name is non-empty and within MaxTitleLength.
func ValidName(trimmed string) bool {
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= MaxTitleLength
}

// ValidDescription reports whether a trimmed description fits MaxDescriptionLength.
// An empty description is valid.
func ValidDescription(trimmed string) bool {
	return utf8.RuneCountInString(trimmed) <= MaxDescriptionLength
}

// ValidTypes reports whether types is non-empty and every entry is known.
func ValidTypes(types []PinType) bool {
	if len(types) == 0 {
		return false
	}
	for _, t := range types {
		if !IsValidPinType(string(t)) {
			return false
		}
	}
	return true
}
