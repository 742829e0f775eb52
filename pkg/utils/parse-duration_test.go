package utils

import (
	"testing"
	"time"
)

func TestParseDurationString(t *testing.T) {
	tests := []struct {
		input      string
		expected   time.Duration
		shouldFail bool
	}{
		{"", 0, true},
		{"30", 0, true},
		{"30s", 30 * time.Second, false},
		{"1m", time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"1d", 0, true}, // not supported
		{"250ms", 250 * time.Millisecond, false},
	}

	for _, test := range tests {
		result, err := ParseDurationString(test.input)
		if test.shouldFail {
			if err == nil {
				t.Errorf("expected error for input %s, but got nil", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("expected no error for input %s, but got %s", test.input, err)
		}
		if result != test.expected {
			t.Errorf("expected %s for input %s, but got %s", test.expected, test.input, result)
		}
	}
}

func TestDurationOrDefault(t *testing.T) {
	def := 30 * time.Second

	t.Run("empty uses default", func(t *testing.T) {
		d, err := DurationOrDefault("", def)
		if err != nil || d != def {
			t.Errorf("unexpected result: %v, %v", d, err)
		}
	})
	t.Run("negative uses default", func(t *testing.T) {
		d, err := DurationOrDefault("-5s", def)
		if err != nil || d != def {
			t.Errorf("unexpected result: %v, %v", d, err)
		}
	})
	t.Run("explicit value", func(t *testing.T) {
		d, err := DurationOrDefault("5s", def)
		if err != nil || d != 5*time.Second {
			t.Errorf("unexpected result: %v, %v", d, err)
		}
	})
	t.Run("invalid value", func(t *testing.T) {
		if _, err := DurationOrDefault("soon", def); err == nil {
			t.Error("should produce error")
		}
	})
}
