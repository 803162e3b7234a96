package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var windowPattern = regexp.MustCompile(`^(\d+)([hdwm])$`)

// ParseWindow parses a time window string like "24h" or "7d" into a
// duration. Supported units: h (hours), d (days), w (weeks), m (months,
// approximated as 30 days).
func ParseWindow(window string) (time.Duration, error) {
	match := windowPattern.FindStringSubmatch(strings.ToLower(window))
	if match == nil {
		return 0, fmt.Errorf("invalid time window format: %q", window)
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time window value: %q", window)
	}

	switch match[2] {
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	case "w":
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	case "m":
		return time.Duration(value) * 30 * 24 * time.Hour, nil
	}

	return 0, fmt.Errorf("unknown time unit in window: %q", window)
}
