package domain

import (
	"strings"
	"unicode"
)

// NormalizeKey builds the canonical record key for a handle/tag pair:
// lowercase, all whitespace removed, joined by "-".
func NormalizeKey(handle, tag string) string {
	return normalize(handle) + "-" + normalize(tag)
}

func normalize(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// ValidIdentity reports whether both parts carry at least one
// non-whitespace character.
func ValidIdentity(handle, tag string) bool {
	return normalize(handle) != "" && normalize(tag) != ""
}
