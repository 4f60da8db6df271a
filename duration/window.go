package duration

import "time"

// Window is the concrete time range an analysis covers.
type Window struct {
	Start time.Time // inclusive
	End   time.Time // exclusive
}

// WindowEndingAt returns the window of length d that ends at now.
func WindowEndingAt(now time.Time, d time.Duration) Window {
	return Window{
		Start: now.Add(-d),
		End:   now,
	}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Length returns the window span.
func (w Window) Length() time.Duration {
	return w.End.Sub(w.Start)
}

// FormatTimestamp formats a time as a readable UTC string.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
