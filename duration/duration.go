// Package duration parses the free-form time windows users pass to the
// analysis commands ("2h", "30 min", "1 day") and renders durations back
// into readable phrases.
package duration

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Day = 24 * time.Hour

	// Default is used when the user supplies no window.
	Default = 24 * time.Hour
	Min     = 5 * time.Minute
	Max     = 7 * Day
)

var (
	ErrInvalidFormat = errors.New("invalid duration format")
	ErrOutOfRange    = errors.New("duration out of range")
)

var unitTokens = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "mn": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": Day, "day": Day, "days": Day,
}

// component matches one "<N><unit>" pair with optional whitespace in between.
var component = regexp.MustCompile(`(\d+)\s*([a-z]+)`)

// Parse converts user input into a duration between Min and Max inclusive.
// Blank input yields Default.
func Parse(input string) (time.Duration, error) {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return Default, nil
	}

	matches := component.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, input)
	}

	var total time.Duration
	prev := 0
	for _, m := range matches {
		// Only whitespace (or a joining comma/"and") may sit between components.
		if gap := strings.TrimSpace(text[prev:m[0]]); gap != "" && gap != "," && gap != "and" {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, input)
		}
		prev = m[1]

		unit, ok := unitTokens[text[m[4]:m[5]]]
		if !ok {
			return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidFormat, text[m[4]:m[5]])
		}

		n, err := strconv.ParseInt(text[m[2]:m[3]], 10, 64)
		if err != nil || n > int64(math.MaxInt64/unit) {
			return 0, fmt.Errorf("%w: %q exceeds %s", ErrOutOfRange, input, Render(Max))
		}
		part := time.Duration(n) * unit
		if total > math.MaxInt64-part {
			return 0, fmt.Errorf("%w: %q exceeds %s", ErrOutOfRange, input, Render(Max))
		}
		total += part
	}
	if strings.TrimSpace(text[prev:]) != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, input)
	}

	if err := Validate(total); err != nil {
		return 0, err
	}
	return total, nil
}

// Validate reports whether d lies within the accepted analysis window bounds.
func Validate(d time.Duration) error {
	if d < Min || d > Max {
		return fmt.Errorf("%w: %s is not between %s and %s", ErrOutOfRange, Render(d), Render(Min), Render(Max))
	}
	return nil
}

// Render formats d largest unit first, skipping zero components,
// e.g. 7205s renders as "2 hours 5 seconds". Sub-second precision is dropped.
func Render(d time.Duration) string {
	secs := int64(d / time.Second)
	sign := ""
	if secs < 0 {
		// d / time.Second cannot be math.MinInt64, so this never overflows.
		sign, secs = "-", -secs
	}
	if secs == 0 {
		return "0 seconds"
	}

	units := []struct {
		name string
		size int64
	}{
		{"day", int64(Day / time.Second)},
		{"hour", int64(time.Hour / time.Second)},
		{"minute", int64(time.Minute / time.Second)},
		{"second", 1},
	}

	parts := make([]string, 0, len(units))
	for _, u := range units {
		n := secs / u.size
		if n == 0 {
			continue
		}
		secs -= n * u.size
		name := u.name
		if n != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, name))
	}
	return sign + strings.Join(parts, " ")
}
