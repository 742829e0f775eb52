package utils

import (
	"fmt"
	"time"
)

// ParseDurationString parses a Go duration string from a config file.
func ParseDurationString(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid time duration '%s' : %s", value, err.Error())
	}
	return d, nil
}

// DurationOrDefault parses value and falls back to def for empty or
// non-positive values.
func DurationOrDefault(value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := ParseDurationString(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
