package feed

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanHTML(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello world", "hello world"},
		{"strips tags", "<p>hello <b>world</b></p>", "hello world"},
		{"decodes entities", "fish &amp; chips", "fish & chips"},
		{"collapses whitespace", "hello\n\n  world\t!", "hello world !"},
		{"empty", "", ""},
		{"nested markup", "<div><ul><li>one</li> <li>two</li></ul></div>", "one two"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanHTML(tc.input); got != tc.expected {
				t.Errorf("CleanHTML(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestTruncate_ShortTextUnchanged(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate should leave short text unchanged, got %q", got)
	}
}

func TestTruncate_MultiByteTextStaysValid(t *testing.T) {
	got := Truncate("ééééé", 3)

	if got != "ééé..." {
		t.Errorf("Expected cut after 3 characters, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("Truncated text must be valid UTF-8, got %q", got)
	}
}

func TestTruncate_MaxLengthCountsCharacters(t *testing.T) {
	text := "ééééé ééééé" // 11 characters, 22 bytes

	if got := Truncate(text, 11); got != text {
		t.Errorf("Text at exactly maxLength characters should be unchanged, got %q", got)
	}
}

func TestTruncate_BreaksAtWordBoundary(t *testing.T) {
	text := strings.Repeat("word ", 100)

	got := Truncate(text, 52)

	if !strings.HasSuffix(got, "...") {
		t.Errorf("Truncated text should end with ellipsis, got %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "..."), "wor") {
		t.Errorf("Truncation should not cut mid-word, got %q", got)
	}
	if len(got) > 55 {
		t.Errorf("Truncated text too long: %d chars", len(got))
	}
}
