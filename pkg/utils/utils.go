package utils

import (
	"strings"
	"unicode/utf8"
)

func ToPointer[T any](v T) *T {
	return &v
}

// ContainsString reports whether s is in list, ignoring case.
func ContainsString(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// CleanToValidUTF8 drops invalid byte sequences and trims whitespace.
func CleanToValidUTF8(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
