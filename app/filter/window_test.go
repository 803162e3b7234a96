package filter

import (
	"testing"
	"time"
)

func TestParseWindow_Units(t *testing.T) {
	cases := []struct {
		window   string
		expected time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"1h", time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"1m", 30 * 24 * time.Hour},
		{"3M", 90 * 24 * time.Hour}, // case-insensitive
	}

	for _, tc := range cases {
		got, err := ParseWindow(tc.window)
		if err != nil {
			t.Errorf("ParseWindow(%q) returned error: %v", tc.window, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("ParseWindow(%q) = %v, expected %v", tc.window, got, tc.expected)
		}
	}
}

func TestParseWindow_Invalid(t *testing.T) {
	for _, window := range []string{"", "24", "h", "24x", "-1h", "1.5d", "24 h"} {
		if _, err := ParseWindow(window); err == nil {
			t.Errorf("ParseWindow(%q) should have returned an error", window)
		}
	}
}
