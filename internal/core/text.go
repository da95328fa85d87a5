package core

import "strings"

// Clean normalizes a human-readable text field: newlines become spaces,
// double spaces are replaced in a single pass, and surrounding whitespace
// is trimmed. Runs of three or more spaces are only partially collapsed.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "  ", " ")
	return strings.TrimSpace(s)
}

// Collapse is Clean repeated to a fixpoint: every run of spaces becomes one.
func Collapse(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// CleanPtr applies Clean to an optional value. Nil stays nil.
func CleanPtr(s *string) *string {
	return cleanWith(s, Clean)
}

// CollapsePtr applies Collapse to an optional value. Nil stays nil.
func CollapsePtr(s *string) *string {
	return cleanWith(s, Collapse)
}

func cleanWith(s *string, fn func(string) string) *string {
	if s == nil {
		return nil
	}
	out := fn(*s)
	return &out
}
